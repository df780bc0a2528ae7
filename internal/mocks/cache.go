package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/collateral-ledger/internal/domain"
)

type MockLoanCache struct {
	mock.Mock
}

func (m *MockLoanCache) Get(ctx context.Context, id uuid.UUID) (*domain.Loan, int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*domain.Loan), args.Get(1).(int64), args.Error(2)
}

func (m *MockLoanCache) Set(ctx context.Context, loan *domain.Loan, lease int64) (bool, error) {
	args := m.Called(ctx, loan, lease)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanCache) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}
