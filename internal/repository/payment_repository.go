package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

const paymentColumns = `id, loan_id, amount, payment_date, created_at`

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.PaymentDate,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`+forUpdate(r.db), id)
}

func (r *paymentRepository) get(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	var payment domain.Payment
	if err := sqlx.GetContext(ctx, r.db, &payment, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE loan_id = ?
		ORDER BY payment_date, created_at
	`

	payments := []*domain.Payment{}
	if err := sqlx.SelectContext(ctx, r.db, &payments, r.db.Rebind(query), loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) CountByLoan(ctx context.Context, loanID uuid.UUID) (int, error) {
	return countWhere(ctx, r.db, `SELECT COUNT(*) FROM payments WHERE loan_id = ?`, nil, loanID)
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM payments WHERE id = ?`), id)
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
