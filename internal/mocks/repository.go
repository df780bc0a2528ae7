package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
)

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockGuaranteeRepository struct {
	mock.Mock
}

func (m *MockGuaranteeRepository) Create(ctx context.Context, guarantee *domain.Guarantee) error {
	args := m.Called(ctx, guarantee)
	return args.Error(0)
}

func (m *MockGuaranteeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guarantee), args.Error(1)
}

func (m *MockGuaranteeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Guarantee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guarantee), args.Error(1)
}

func (m *MockGuaranteeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGuaranteeRepository) Lock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, loanID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuaranteeRepository) Unlock(ctx context.Context, id, loanID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, loanID, at)
	return args.Bool(0), args.Error(1)
}

type MockRatePlanRepository struct {
	mock.Mock
}

func (m *MockRatePlanRepository) Create(ctx context.Context, plan *domain.RatePlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockRatePlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RatePlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockRatePlanRepository) GetActiveByAmount(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

func (m *MockRatePlanRepository) ListActive(ctx context.Context) ([]*domain.RatePlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RatePlan), args.Error(1)
}

func (m *MockRatePlanRepository) Update(ctx context.Context, plan *domain.RatePlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockRatePlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) CountByClient(ctx context.Context, clientID uuid.UUID, statuses ...domain.LoanStatus) (int, error) {
	args := m.Called(ctx, clientID, statuses)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) CountByGuarantee(ctx context.Context, guaranteeID uuid.UUID, statuses ...domain.LoanStatus) (int, error) {
	args := m.Called(ctx, guaranteeID, statuses)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) CountByRatePlan(ctx context.Context, ratePlanID uuid.UUID) (int, error) {
	args := m.Called(ctx, ratePlanID)
	return args.Int(0), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountByLoan(ctx context.Context, loanID uuid.UUID) (int, error) {
	args := m.Called(ctx, loanID)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRepositories exposes the typed mocks behind a MockStore
type MockRepositories struct {
	Clients    *MockClientRepository
	Guarantees *MockGuaranteeRepository
	RatePlans  *MockRatePlanRepository
	Loans      *MockLoanRepository
	Payments   *MockPaymentRepository
}

// AssertExpectations checks every repository mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.Clients.AssertExpectations(t)
	r.Guarantees.AssertExpectations(t)
	r.RatePlans.AssertExpectations(t)
	r.Loans.AssertExpectations(t)
	r.Payments.AssertExpectations(t)
}

// MockStore runs units of work straight against its mock repositories.
// Set BeginErr to make WithinTx fail before fn runs.
type MockStore struct {
	repos        *repository.Repositories
	BeginErr     error
	Transactions int
}

func NewMockStore() (*MockStore, *MockRepositories) {
	mocks := &MockRepositories{
		Clients:    &MockClientRepository{},
		Guarantees: &MockGuaranteeRepository{},
		RatePlans:  &MockRatePlanRepository{},
		Loans:      &MockLoanRepository{},
		Payments:   &MockPaymentRepository{},
	}

	store := &MockStore{
		repos: &repository.Repositories{
			Clients:    mocks.Clients,
			Guarantees: mocks.Guarantees,
			RatePlans:  mocks.RatePlans,
			Loans:      mocks.Loans,
			Payments:   mocks.Payments,
		},
	}
	return store, mocks
}

func (s *MockStore) Repositories() *repository.Repositories {
	return s.repos
}

func (s *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	if s.BeginErr != nil {
		return s.BeginErr
	}
	s.Transactions++
	return fn(ctx, s.repos)
}
