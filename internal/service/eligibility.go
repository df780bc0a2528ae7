package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

// blockingStatuses keep a client from taking a new loan. Anything but PAID
// blocks, CANCELLED included.
var blockingStatuses = []domain.LoanStatus{
	domain.LoanStatusActive,
	domain.LoanStatusOverdue,
	domain.LoanStatusCancelled,
}

// CheckOriginationEligibility reports whether clientID may pledge guaranteeID
// for a new loan. It returns nil when eligible, ACTIVE_LOAN_EXISTS or
// GUARANTEE_UNAVAILABLE conflicts otherwise, and has no side effects.
func (s *LedgerService) CheckOriginationEligibility(ctx context.Context, clientID, guaranteeID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.CheckOriginationEligibility", trace.WithAttributes(
		attribute.String("client.id", clientID.String()),
		attribute.String("guarantee.id", guaranteeID.String()),
	))
	defer func() { endSpan(span, err) }()

	repos := s.store.Repositories()
	if _, err = repos.Clients.GetByID(ctx, clientID); err != nil {
		return lookupError(err, customError.WrapClientNotFound, clientID)
	}

	return checkEligibility(ctx, repos, clientID, guaranteeID)
}

// checkEligibility runs the guard against repos, which inside origination is
// the transaction that already holds the client and guarantee rows.
func checkEligibility(ctx context.Context, repos *repository.Repositories, clientID, guaranteeID uuid.UUID) error {
	open, err := repos.Loans.CountByClient(ctx, clientID, blockingStatuses...)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if open > 0 {
		return customError.WrapActiveLoanExists(clientID.String())
	}

	guarantee, err := repos.Guarantees.GetByID(ctx, guaranteeID)
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapGuaranteeUnavailable(guaranteeID.String())
	}
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !guarantee.IsAvailable() {
		return customError.WrapGuaranteeUnavailable(guaranteeID.String())
	}

	holders, err := repos.Loans.CountByGuarantee(ctx, guaranteeID, domain.OutstandingStatuses...)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if holders > 0 {
		return customError.WrapGuaranteeUnavailable(guaranteeID.String())
	}

	return nil
}
