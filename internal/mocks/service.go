package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) OriginateLoan(ctx context.Context, request *domain.OriginateLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLedgerService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLedgerService) GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockLedgerService) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockLedgerService) PostPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, paymentDate time.Time) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, amount, paymentDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLedgerService) ReversePayment(ctx context.Context, paymentID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLedgerService) SetLoanStatus(ctx context.Context, loanID uuid.UUID, status string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLedgerService) DeleteLoan(ctx context.Context, loanID uuid.UUID) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

func (m *MockLedgerService) CheckOriginationEligibility(ctx context.Context, clientID, guaranteeID uuid.UUID) error {
	args := m.Called(ctx, clientID, guaranteeID)
	return args.Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) RegisterClient(ctx context.Context, request *domain.CreateClientRequest) (*domain.Client, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockCatalogService) GetClient(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockCatalogService) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockCatalogService) RegisterGuarantee(ctx context.Context, request *domain.CreateGuaranteeRequest) (*domain.Guarantee, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guarantee), args.Error(1)
}

func (m *MockCatalogService) GetGuarantee(ctx context.Context, guaranteeID uuid.UUID) (*domain.Guarantee, error) {
	args := m.Called(ctx, guaranteeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guarantee), args.Error(1)
}

func (m *MockCatalogService) IsGuaranteeAvailable(ctx context.Context, guaranteeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, guaranteeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogService) DeleteGuarantee(ctx context.Context, guaranteeID uuid.UUID) error {
	args := m.Called(ctx, guaranteeID)
	return args.Error(0)
}

func (m *MockCatalogService) CreateRatePlan(ctx context.Context, request *domain.RatePlanRequest) (*domain.RatePlan, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockCatalogService) UpdateRatePlan(ctx context.Context, ratePlanID uuid.UUID, request *domain.RatePlanRequest) (*domain.RatePlan, error) {
	args := m.Called(ctx, ratePlanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockCatalogService) GetRatePlan(ctx context.Context, ratePlanID uuid.UUID) (*domain.RatePlan, error) {
	args := m.Called(ctx, ratePlanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockCatalogService) GetActiveRatePlan(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockCatalogService) ListActiveRatePlans(ctx context.Context) ([]*domain.RatePlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RatePlan), args.Error(1)
}

func (m *MockCatalogService) DeleteRatePlan(ctx context.Context, ratePlanID uuid.UUID) error {
	args := m.Called(ctx, ratePlanID)
	return args.Error(0)
}
