package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/cache"
	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
	"github.com/segyhp/collateral-ledger/pkg/utils"
)

// LedgerService owns loan origination, payment application and the loan
// status lifecycle, keeping each loan's guarantee lock in step with it.
type LedgerService struct {
	store   repository.Store
	cache   cache.LoanCache
	log     *zap.Logger
	now     Clock
	tracer  trace.Tracer
	metrics ledgerMetrics
}

func NewLedgerService(
	store repository.Store,
	loanCache cache.LoanCache,
	log *zap.Logger,
	clock Clock,
) *LedgerService {
	if loanCache == nil {
		loanCache = cache.NewNopLoanCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock
	}

	return &LedgerService{
		store:   store,
		cache:   loanCache,
		log:     log,
		now:     clock,
		tracer:  tracer(),
		metrics: newLedgerMetrics(),
	}
}

// OriginateLoan creates an ACTIVE loan on the given plan and pledges the guarantee to it
func (s *LedgerService) OriginateLoan(ctx context.Context, request *domain.OriginateLoanRequest) (loan *domain.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.OriginateLoan", trace.WithAttributes(
		attribute.String("client.id", request.ClientID.String()),
		attribute.String("guarantee.id", request.GuaranteeID.String()),
		attribute.String("rate_plan.id", request.RatePlanID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		client, err := repos.Clients.GetByIDForUpdate(ctx, request.ClientID)
		if err != nil {
			return lookupError(err, customError.WrapClientNotFound, request.ClientID)
		}

		plan, err := repos.RatePlans.GetByID(ctx, request.RatePlanID)
		if err != nil {
			return lookupError(err, customError.WrapRatePlanNotFound, request.RatePlanID)
		}

		guarantee, err := repos.Guarantees.GetByIDForUpdate(ctx, request.GuaranteeID)
		if err != nil {
			return lookupError(err, customError.WrapGuaranteeNotFound, request.GuaranteeID)
		}

		if !plan.Active {
			return customError.WrapInvalidRate(plan.ID.String())
		}

		if err := checkEligibility(ctx, repos, client.ID, guarantee.ID); err != nil {
			return err
		}

		now := s.now()
		loan = &domain.Loan{
			ID:            uuid.New(),
			ClientID:      client.ID,
			RatePlanID:    plan.ID,
			GuaranteeID:   guarantee.ID,
			Amount:        plan.Amount,
			WeeklyPayment: plan.WeeklyPayment,
			Installments:  plan.Installments,
			TotalAmount:   plan.TotalAmount(),
			Status:        domain.LoanStatusActive,
			OriginatedAt:  now,
			DueDate:       utils.CalculateDueDate(now, plan.Installments),
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		loan.SetPaidAmount(decimal.Zero)

		if err := repos.Loans.Create(ctx, loan); err != nil {
			if repository.IsUniqueViolation(err) {
				return customError.WrapGuaranteeUnavailable(guarantee.ID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		locked, err := repos.Guarantees.Lock(ctx, guarantee.ID, loan.ID, now)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !locked {
			return customError.WrapGuaranteeUnavailable(guarantee.ID.String())
		}

		return nil
	})
	if err != nil {
		err = asBusinessError(err)
		s.log.Warn("Loan origination rejected",
			zap.String("client_id", request.ClientID.String()),
			zap.String("guarantee_id", request.GuaranteeID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.loansOriginated.Add(ctx, 1)
	s.log.Info("Loan originated",
		zap.String("loan_id", loan.ID.String()),
		zap.String("client_id", loan.ClientID.String()),
		zap.String("guarantee_id", loan.GuaranteeID.String()),
		zap.String("total_amount", loan.TotalAmount.String()),
	)

	return loan, nil
}

// GetLoan returns a loan, serving it from the cache when possible
func (s *LedgerService) GetLoan(ctx context.Context, loanID uuid.UUID) (loan *domain.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetLoan", trace.WithAttributes(
		attribute.String("loan.id", loanID.String()),
	))
	defer func() { endSpan(span, err) }()

	cached, lease, cacheErr := s.cache.Get(ctx, loanID)
	if cacheErr != nil {
		s.log.Warn("Loan cache read failed", zap.String("loan_id", loanID.String()), zap.Error(cacheErr))
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	loan, err = s.store.Repositories().Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, lookupError(err, customError.WrapLoanNotFound, loanID)
	}

	// Without a lease the snapshot could overwrite a later invalidation
	if cacheErr != nil {
		return loan, nil
	}
	stored, cacheErr := s.cache.Set(ctx, loan, lease)
	if cacheErr != nil {
		s.log.Warn("Loan cache write failed", zap.String("loan_id", loanID.String()), zap.Error(cacheErr))
	} else if !stored {
		s.log.Debug("Loan snapshot superseded by a newer write", zap.String("loan_id", loanID.String()))
	}

	return loan, nil
}

// GetSchedule returns the loan's weekly installments as of now
func (s *LedgerService) GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return domain.NewScheduleResponse(loan, s.now()), nil
}

// ListPayments returns the loan's payment journal in payment date order
func (s *LedgerService) ListPayments(ctx context.Context, loanID uuid.UUID) (payments []*domain.Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ListPayments", trace.WithAttributes(
		attribute.String("loan.id", loanID.String()),
	))
	defer func() { endSpan(span, err) }()

	repos := s.store.Repositories()
	if _, err = repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, lookupError(err, customError.WrapLoanNotFound, loanID)
	}

	payments, err = repos.Payments.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

// SetLoanStatus is the administrative override. It does not look at the
// balance; it only keeps CompletedAt and the guarantee lock consistent with
// the new status.
func (s *LedgerService) SetLoanStatus(ctx context.Context, loanID uuid.UUID, status string) (loan *domain.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SetLoanStatus", trace.WithAttributes(
		attribute.String("loan.id", loanID.String()),
		attribute.String("loan.status", status),
	))
	defer func() { endSpan(span, err) }()

	newStatus, ok := domain.ParseLoanStatus(status)
	if !ok {
		return nil, customError.WrapInvalidStatus(status)
	}

	var previous domain.LoanStatus
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		loan, err = repos.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return lookupError(err, customError.WrapLoanNotFound, loanID)
		}

		now := s.now()
		previous = loan.Status
		loan.Status = newStatus
		loan.UpdatedAt = now
		loan.CompletedAt = nil
		if newStatus == domain.LoanStatusPaid {
			loan.CompletedAt = &now
		}

		switch {
		case newStatus.IsTerminal():
			if err := releaseGuarantee(ctx, repos, loan, now); err != nil {
				return err
			}
		case previous.IsTerminal():
			if err := pledgeGuarantee(ctx, repos, loan, now); err != nil {
				return err
			}
		}

		return updateLoan(ctx, repos, loan)
	})
	if err != nil {
		return nil, asBusinessError(err)
	}

	s.invalidate(ctx, loan.ID)
	s.log.Info("Loan status changed",
		zap.String("loan_id", loan.ID.String()),
		zap.String("from", string(previous)),
		zap.String("status", string(loan.Status)),
	)

	return loan, nil
}

// DeleteLoan removes a loan without payments and releases its guarantee
func (s *LedgerService) DeleteLoan(ctx context.Context, loanID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.DeleteLoan", trace.WithAttributes(
		attribute.String("loan.id", loanID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		loan, err := repos.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return lookupError(err, customError.WrapLoanNotFound, loanID)
		}

		count, err := repos.Payments.CountByLoan(ctx, loan.ID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if count > 0 {
			return customError.WrapHasPayments(loan.ID.String())
		}

		if err := releaseGuarantee(ctx, repos, loan, s.now()); err != nil {
			return err
		}

		if err := repos.Loans.Delete(ctx, loan.ID); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return customError.WrapHasPayments(loan.ID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return asBusinessError(err)
	}

	s.invalidate(ctx, loanID)
	s.log.Info("Loan deleted", zap.String("loan_id", loanID.String()))

	return nil
}

// MarkOverdueLoans moves ACTIVE loans past their due date with money still
// owed to OVERDUE. Each loan is its own transaction; failures are logged,
// collected and do not stop the sweep.
func (s *LedgerService) MarkOverdueLoans(ctx context.Context) (marked int, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.MarkOverdueLoans")
	defer func() { endSpan(span, err) }()

	now := s.now()
	candidates, err := s.store.Repositories().Loans.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	var errs []error
	for _, candidate := range candidates {
		if !isPastDue(candidate, now) {
			continue
		}

		flipped := false
		txErr := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			loan, err := repos.Loans.GetByIDForUpdate(ctx, candidate.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			if loan.Status != domain.LoanStatusActive || !isPastDue(loan, now) {
				return nil
			}

			loan.Status = domain.LoanStatusOverdue
			loan.UpdatedAt = now
			if err := updateLoan(ctx, repos, loan); err != nil {
				return err
			}
			flipped = true
			return nil
		})
		if txErr != nil {
			s.log.Warn("Failed to mark loan overdue", zap.String("loan_id", candidate.ID.String()), zap.Error(txErr))
			errs = append(errs, asBusinessError(txErr))
			continue
		}
		if flipped {
			marked++
			s.invalidate(ctx, candidate.ID)
		}
	}

	s.metrics.loansOverdue.Add(ctx, int64(marked), metric.WithAttributes(attribute.String("trigger", "sweep")))
	s.log.Info("Overdue sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("marked", marked),
		zap.Int("failed", len(errs)),
	)

	return marked, errors.Join(errs...)
}

func isPastDue(loan *domain.Loan, now time.Time) bool {
	return utils.IsDateOverdue(loan.DueDate, now) && loan.Balance.IsPositive()
}

// updateLoan persists loan and turns a lost update into a conflict
func updateLoan(ctx context.Context, repos *repository.Repositories, loan *domain.Loan) error {
	err := repos.Loans.Update(ctx, loan)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return customError.WrapConcurrentModification(loan.ID.String())
	case repository.IsUniqueViolation(err):
		// Another outstanding loan already holds the guarantee
		return customError.WrapGuaranteeUnavailable(loan.GuaranteeID.String())
	default:
		return customError.WrapDatabaseError(err)
	}
}

// releaseGuarantee unlocks the loan's guarantee if this loan holds it
func releaseGuarantee(ctx context.Context, repos *repository.Repositories, loan *domain.Loan, now time.Time) error {
	if _, err := repos.Guarantees.Unlock(ctx, loan.GuaranteeID, loan.ID, now); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// pledgeGuarantee locks the loan's guarantee again, failing if another loan took it meanwhile
func pledgeGuarantee(ctx context.Context, repos *repository.Repositories, loan *domain.Loan, now time.Time) error {
	locked, err := repos.Guarantees.Lock(ctx, loan.GuaranteeID, loan.ID, now)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if locked {
		return nil
	}

	guarantee, err := repos.Guarantees.GetByIDForUpdate(ctx, loan.GuaranteeID)
	if err != nil {
		return lookupError(err, customError.WrapGuaranteeNotFound, loan.GuaranteeID)
	}
	if guarantee.LockedByLoanID != nil && *guarantee.LockedByLoanID == loan.ID {
		return nil
	}
	return customError.WrapGuaranteeUnavailable(loan.GuaranteeID.String())
}

// invalidate drops cached snapshots after a committed write
func (s *LedgerService) invalidate(ctx context.Context, loanIDs ...uuid.UUID) {
	if err := s.cache.Invalidate(ctx, loanIDs...); err != nil {
		s.log.Warn("Loan cache invalidation failed", zap.Error(customError.WrapCacheError(err)))
	}
}
