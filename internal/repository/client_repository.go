package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

const clientColumns = `id, full_name, document_number, phone, address, created_at, updated_at`

type clientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		client.ID,
		client.FullName,
		client.DocumentNumber,
		client.Phone,
		client.Address,
		client.CreatedAt,
		client.UpdatedAt,
	)

	return err
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
}

func (r *clientRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`+forUpdate(r.db), id)
}

func (r *clientRepository) get(ctx context.Context, query string, args ...any) (*domain.Client, error) {
	var client domain.Client
	if err := sqlx.GetContext(ctx, r.db, &client, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return &client, nil
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM clients WHERE id = ?`), id)
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
