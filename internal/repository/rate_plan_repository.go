package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

const ratePlanColumns = `id, amount, weekly_payment, installments, active, created_at, updated_at`

type ratePlanRepository struct {
	db DBTX
}

func NewRatePlanRepository(db DBTX) RatePlanRepository {
	return &ratePlanRepository{db: db}
}

func (r *ratePlanRepository) Create(ctx context.Context, plan *domain.RatePlan) error {
	query := `
		INSERT INTO rate_plans (` + ratePlanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		plan.ID,
		plan.Amount,
		plan.WeeklyPayment,
		plan.Installments,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	)

	return err
}

func (r *ratePlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RatePlan, error) {
	var plan domain.RatePlan
	query := `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE id = ?`
	if err := sqlx.GetContext(ctx, r.db, &plan, r.db.Rebind(query), id); err != nil {
		return nil, err
	}

	return &plan, nil
}

// GetActiveByAmount matches amounts numerically; SQLite keeps them as text
func (r *ratePlanRepository) GetActiveByAmount(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error) {
	plans, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, plan := range plans {
		if plan.Amount.Equal(amount) {
			return plan, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ListActive returns active plans ordered by amount
func (r *ratePlanRepository) ListActive(ctx context.Context) ([]*domain.RatePlan, error) {
	query := `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE active = ?`

	plans := []*domain.RatePlan{}
	if err := sqlx.SelectContext(ctx, r.db, &plans, r.db.Rebind(query), true); err != nil {
		return nil, err
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Amount.LessThan(plans[j].Amount)
	})
	return plans, nil
}

func (r *ratePlanRepository) Update(ctx context.Context, plan *domain.RatePlan) error {
	query := `
		UPDATE rate_plans
		SET amount = ?, weekly_payment = ?, installments = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		plan.Amount,
		plan.WeeklyPayment,
		plan.Installments,
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	)
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

func (r *ratePlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM rate_plans WHERE id = ?`), id)
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
