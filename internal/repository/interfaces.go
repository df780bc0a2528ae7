package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

// Lookups return sql.ErrNoRows when the row does not exist.
// ForUpdate variants take a row lock on PostgreSQL and must run inside Store.WithinTx.

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GuaranteeRepository defines the interface for collateral item data operations
type GuaranteeRepository interface {
	Create(ctx context.Context, guarantee *domain.Guarantee) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Lock pledges the item to loanID if nobody holds it and reports whether it did
	Lock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error)

	// Unlock releases the item if loanID holds it and reports whether it did
	Unlock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error)
}

// RatePlanRepository defines the interface for rate catalog data operations
type RatePlanRepository interface {
	Create(ctx context.Context, plan *domain.RatePlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RatePlan, error)
	GetActiveByAmount(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error)
	ListActive(ctx context.Context) ([]*domain.RatePlan, error)
	Update(ctx context.Context, plan *domain.RatePlan) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update writes the mutable loan fields if loan.Version is still current
	// and bumps loan.Version. A stale version returns ErrVersionConflict.
	Update(ctx context.Context, loan *domain.Loan) error

	Delete(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error)

	// Count* helpers count every loan when no status is given
	CountByClient(ctx context.Context, clientID uuid.UUID, statuses ...domain.LoanStatus) (int, error)
	CountByGuarantee(ctx context.Context, guaranteeID uuid.UUID, statuses ...domain.LoanStatus) (int, error)
	CountByRatePlan(ctx context.Context, ratePlanID uuid.UUID) (int, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)
	CountByLoan(ctx context.Context, loanID uuid.UUID) (int, error)

	// Delete returns sql.ErrNoRows when the payment is already gone
	Delete(ctx context.Context, id uuid.UUID) error
}
