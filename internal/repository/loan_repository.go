package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

const loanColumns = `id, client_id, rate_plan_id, guarantee_id, amount, weekly_payment, installments,
	total_amount, paid_amount, balance, status, originated_at, due_date, completed_at, version,
	created_at, updated_at`

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		loan.ID,
		loan.ClientID,
		loan.RatePlanID,
		loan.GuaranteeID,
		loan.Amount,
		loan.WeeklyPayment,
		loan.Installments,
		loan.TotalAmount,
		loan.PaidAmount,
		loan.Balance,
		loan.Status,
		loan.OriginatedAt,
		loan.DueDate,
		loan.CompletedAt,
		loan.Version,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`+forUpdate(r.db), id)
}

func (r *loanRepository) get(ctx context.Context, query string, args ...any) (*domain.Loan, error) {
	var loan domain.Loan
	if err := sqlx.GetContext(ctx, r.db, &loan, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET paid_amount = ?, balance = ?, status = ?, completed_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		loan.PaidAmount,
		loan.Balance,
		loan.Status,
		loan.CompletedAt,
		loan.UpdatedAt,
		loan.ID,
		loan.Version,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}

	loan.Version++
	return nil
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM loans WHERE id = ?`), id)
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

func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = ? ORDER BY originated_at`

	loans := []*domain.Loan{}
	if err := sqlx.SelectContext(ctx, r.db, &loans, r.db.Rebind(query), status); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountByClient(ctx context.Context, clientID uuid.UUID, statuses ...domain.LoanStatus) (int, error) {
	return countWhere(ctx, r.db, `SELECT COUNT(*) FROM loans WHERE client_id = ?`, statusStrings(statuses), clientID)
}

func (r *loanRepository) CountByGuarantee(ctx context.Context, guaranteeID uuid.UUID, statuses ...domain.LoanStatus) (int, error) {
	return countWhere(ctx, r.db, `SELECT COUNT(*) FROM loans WHERE guarantee_id = ?`, statusStrings(statuses), guaranteeID)
}

func (r *loanRepository) CountByRatePlan(ctx context.Context, ratePlanID uuid.UUID) (int, error) {
	return countWhere(ctx, r.db, `SELECT COUNT(*) FROM loans WHERE rate_plan_id = ?`, nil, ratePlanID)
}

func statusStrings(statuses []domain.LoanStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
