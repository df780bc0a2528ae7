package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

const guaranteeColumns = `id, name, description, declared_value, locked_by_loan_id, created_at, updated_at`

type guaranteeRepository struct {
	db DBTX
}

func NewGuaranteeRepository(db DBTX) GuaranteeRepository {
	return &guaranteeRepository{db: db}
}

func (r *guaranteeRepository) Create(ctx context.Context, guarantee *domain.Guarantee) error {
	query := `
		INSERT INTO guarantees (` + guaranteeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		guarantee.ID,
		guarantee.Name,
		guarantee.Description,
		guarantee.DeclaredValue,
		guarantee.LockedByLoanID,
		guarantee.CreatedAt,
		guarantee.UpdatedAt,
	)

	return err
}

func (r *guaranteeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error) {
	return r.get(ctx, `SELECT `+guaranteeColumns+` FROM guarantees WHERE id = ?`, id)
}

func (r *guaranteeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error) {
	return r.get(ctx, `SELECT `+guaranteeColumns+` FROM guarantees WHERE id = ?`+forUpdate(r.db), id)
}

func (r *guaranteeRepository) get(ctx context.Context, query string, args ...any) (*domain.Guarantee, error) {
	var guarantee domain.Guarantee
	if err := sqlx.GetContext(ctx, r.db, &guarantee, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return &guarantee, nil
}

func (r *guaranteeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM guarantees WHERE id = ?`), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *guaranteeRepository) Lock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE guarantees
		SET locked_by_loan_id = ?, updated_at = ?
		WHERE id = ? AND locked_by_loan_id IS NULL
	`

	return r.exec(ctx, query, loanID, at, id)
}

func (r *guaranteeRepository) Unlock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE guarantees
		SET locked_by_loan_id = NULL, updated_at = ?
		WHERE id = ? AND locked_by_loan_id = ?
	`

	return r.exec(ctx, query, at, id, loanID)
}

func (r *guaranteeRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
