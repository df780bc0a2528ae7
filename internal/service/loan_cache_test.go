package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/cache"
	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/service"
)

// gatedCache holds the first Set until release is closed
type gatedCache struct {
	cache.LoanCache

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedCache(inner cache.LoanCache) *gatedCache {
	return &gatedCache{
		LoanCache: inner,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (c *gatedCache) Set(ctx context.Context, loan *domain.Loan, lease int64) (bool, error) {
	first := false
	c.once.Do(func() { first = true })
	if first {
		close(c.entered)
		<-c.release
	}
	return c.LoanCache.Set(ctx, loan, lease)
}

func (s *LedgerSuite) cachedLedger(loanCache cache.LoanCache) *service.LedgerService {
	return service.NewLedgerService(s.store, loanCache, zap.NewNop(), func() time.Time { return s.now })
}

func (s *LedgerSuite) redisCache() cache.LoanCache {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(s.T()).Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	return cache.NewRedisLoanCache(client, 10*time.Minute)
}

func (s *LedgerSuite) TestCachedReadCannotOutliveReversal() {
	gate := newGatedCache(s.redisCache())
	ledger := s.cachedLedger(gate)

	loan := s.mustOriginate()
	for i := 0; i < 6; i++ {
		_, err := ledger.PostPayment(s.ctx, loan.ID, decimal.NewFromInt(105), time.Time{})
		s.Require().NoError(err)
	}

	// The reader loads the PAID loan and stalls before caching it
	type result struct {
		loan *domain.Loan
		err  error
	}
	done := make(chan result, 1)
	go func() {
		got, err := ledger.GetLoan(s.ctx, loan.ID)
		done <- result{loan: got, err: err}
	}()

	select {
	case <-gate.entered:
	case r := <-done:
		s.FailNow("GetLoan returned without populating the cache", "%v", r.err)
	case <-time.After(5 * time.Second):
		s.FailNow("GetLoan never reached the cache")
	}

	payments, err := ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 6)
	_, err = ledger.ReversePayment(s.ctx, payments[5].ID)
	s.Require().NoError(err)

	close(gate.release)
	stale := <-done
	s.Require().NoError(stale.err)
	s.Equal(domain.LoanStatusPaid, stale.loan.Status)

	// Journal and snapshot agree once the stalled write lands
	payments, err = ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Len(payments, 5)

	stored, err := ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusActive, stored.Status)
	s.assertMoney(525, stored.PaidAmount, "paid")
	s.assertMoney(105, stored.Balance, "balance")

	schedule, err := ledger.GetSchedule(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.assertMoney(105, schedule.Balance, "schedule balance")
}

func (s *LedgerSuite) TestCachedReadsFollowWrites() {
	ledger := s.cachedLedger(s.redisCache())
	loan := s.mustOriginate()

	first, err := ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.assertMoney(630, first.Balance, "balance")

	_, err = ledger.PostPayment(s.ctx, loan.ID, decimal.NewFromInt(210), time.Time{})
	s.Require().NoError(err)

	// Populated again from the database after the write invalidated it
	for i := 0; i < 2; i++ {
		stored, err := ledger.GetLoan(s.ctx, loan.ID)
		s.Require().NoError(err)
		s.assertMoney(420, stored.Balance, "balance")
		s.Equal(first.Version+1, stored.Version)
	}

	s.Require().NoError(ledger.DeleteLoan(s.ctx, loan.ID))
	_, err = ledger.GetLoan(s.ctx, loan.ID)
	s.Error(err)

	_, err = ledger.GetLoan(s.ctx, uuid.New())
	s.Error(err)
}
