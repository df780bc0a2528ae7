package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

func validateRatePlan(request *domain.RatePlanRequest) error {
	switch {
	case !request.Amount.IsPositive():
		return customError.WrapInvalidRatePlan("Amount must be greater than 0")
	case !request.WeeklyPayment.IsPositive():
		return customError.WrapInvalidRatePlan("Weekly payment must be greater than 0")
	case request.Installments <= 0:
		return customError.WrapInvalidRatePlan("Installments must be greater than 0")
	}
	return nil
}

// ensureAmountFree fails if another active plan already covers amount
func ensureAmountFree(ctx context.Context, repos *repository.Repositories, amount decimal.Decimal, self uuid.UUID) error {
	existing, err := repos.RatePlans.GetActiveByAmount(ctx, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if existing.ID != self {
		return customError.WrapDuplicateRatePlan(amount.String())
	}
	return nil
}

// CreateRatePlan adds a plan. Plans are active unless the request says otherwise.
func (s *CatalogService) CreateRatePlan(ctx context.Context, request *domain.RatePlanRequest) (plan *domain.RatePlan, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateRatePlan", trace.WithAttributes(
		attribute.String("rate_plan.amount", request.Amount.String()),
	))
	defer func() { endSpan(span, err) }()

	if err = validateRatePlan(request); err != nil {
		return nil, err
	}

	now := s.now()
	plan = &domain.RatePlan{
		ID:            uuid.New(),
		Amount:        request.Amount,
		WeeklyPayment: request.WeeklyPayment,
		Installments:  request.Installments,
		Active:        request.Active == nil || *request.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if plan.Active {
			if err := ensureAmountFree(ctx, repos, plan.Amount, plan.ID); err != nil {
				return err
			}
		}

		if err := repos.RatePlans.Create(ctx, plan); err != nil {
			if repository.IsUniqueViolation(err) {
				return customError.WrapDuplicateRatePlan(plan.Amount.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asBusinessError(err)
	}

	s.log.Info("Rate plan created",
		zap.String("rate_plan_id", plan.ID.String()),
		zap.String("amount", plan.Amount.String()),
		zap.Bool("active", plan.Active),
	)
	return plan, nil
}

// UpdateRatePlan edits a plan. Once a loan uses the plan only the active
// flag may change; loans keep their own copy of the terms either way.
func (s *CatalogService) UpdateRatePlan(ctx context.Context, ratePlanID uuid.UUID, request *domain.RatePlanRequest) (plan *domain.RatePlan, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpdateRatePlan", trace.WithAttributes(
		attribute.String("rate_plan.id", ratePlanID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err = validateRatePlan(request); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		plan, err = repos.RatePlans.GetByID(ctx, ratePlanID)
		if err != nil {
			return lookupError(err, customError.WrapRatePlanNotFound, ratePlanID)
		}

		termsChanged := !plan.Amount.Equal(request.Amount) ||
			!plan.WeeklyPayment.Equal(request.WeeklyPayment) ||
			plan.Installments != request.Installments
		if termsChanged {
			loans, err := repos.Loans.CountByRatePlan(ctx, plan.ID)
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			if loans > 0 {
				return customError.WrapRatePlanInUse(plan.ID.String())
			}
		}

		plan.Amount = request.Amount
		plan.WeeklyPayment = request.WeeklyPayment
		plan.Installments = request.Installments
		if request.Active != nil {
			plan.Active = *request.Active
		}
		plan.UpdatedAt = s.now()

		if plan.Active {
			if err := ensureAmountFree(ctx, repos, plan.Amount, plan.ID); err != nil {
				return err
			}
		}

		if err := repos.RatePlans.Update(ctx, plan); err != nil {
			if repository.IsUniqueViolation(err) {
				return customError.WrapDuplicateRatePlan(plan.Amount.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asBusinessError(err)
	}

	s.log.Info("Rate plan updated", zap.String("rate_plan_id", plan.ID.String()), zap.Bool("active", plan.Active))
	return plan, nil
}

func (s *CatalogService) GetRatePlan(ctx context.Context, ratePlanID uuid.UUID) (*domain.RatePlan, error) {
	plan, err := s.store.Repositories().RatePlans.GetByID(ctx, ratePlanID)
	if err != nil {
		return nil, lookupError(err, customError.WrapRatePlanNotFound, ratePlanID)
	}
	return plan, nil
}

// GetActiveRatePlan returns the active plan for a loan amount
func (s *CatalogService) GetActiveRatePlan(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error) {
	plan, err := s.store.Repositories().RatePlans.GetActiveByAmount(ctx, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapRatePlanNotFound("for amount " + amount.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return plan, nil
}

func (s *CatalogService) ListActiveRatePlans(ctx context.Context) ([]*domain.RatePlan, error) {
	plans, err := s.store.Repositories().RatePlans.ListActive(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return plans, nil
}

// DeleteRatePlan removes a plan no loan references
func (s *CatalogService) DeleteRatePlan(ctx context.Context, ratePlanID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteRatePlan", trace.WithAttributes(
		attribute.String("rate_plan.id", ratePlanID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.RatePlans.GetByID(ctx, ratePlanID); err != nil {
			return lookupError(err, customError.WrapRatePlanNotFound, ratePlanID)
		}

		loans, err := repos.Loans.CountByRatePlan(ctx, ratePlanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if loans > 0 {
			return customError.WrapRatePlanInUse(ratePlanID.String())
		}

		if err := repos.RatePlans.Delete(ctx, ratePlanID); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return customError.WrapRatePlanInUse(ratePlanID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return asBusinessError(err)
	}

	s.log.Info("Rate plan deleted", zap.String("rate_plan_id", ratePlanID.String()))
	return nil
}
