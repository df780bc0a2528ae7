package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/cache"
	"github.com/segyhp/collateral-ledger/internal/database/dbtest"
	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	"github.com/segyhp/collateral-ledger/internal/service"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

type LedgerSuite struct {
	suite.Suite
	open dbtest.Opener

	ctx     context.Context
	now     time.Time
	store   repository.Store
	ledger  *service.LedgerService
	catalog *service.CatalogService

	plan      *domain.RatePlan
	client    *domain.Client
	guarantee *domain.Guarantee
}

// TestLedgerSuite runs the suite on SQLite, and on Postgres when POSTGRES_TEST_URL is set
func TestLedgerSuite(t *testing.T) {
	for _, dialect := range dbtest.Dialects() {
		t.Run(dialect.Name, func(t *testing.T) {
			suite.Run(t, &LedgerSuite{open: dialect.Open})
		})
	}
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	db, cfg := s.open(s.T())
	s.store = repository.NewStore(db, cfg.TxTimeout)

	clock := func() time.Time { return s.now }
	s.ledger = service.NewLedgerService(s.store, cache.NewNopLoanCache(), zap.NewNop(), clock)
	s.catalog = service.NewCatalogService(s.store, zap.NewNop(), clock)

	var err error
	s.plan, err = s.catalog.CreateRatePlan(s.ctx, &domain.RatePlanRequest{
		Amount:        decimal.NewFromInt(500),
		WeeklyPayment: decimal.NewFromInt(105),
		Installments:  6,
	})
	s.Require().NoError(err)

	s.client = s.registerClient("DOC-C1")
	s.guarantee = s.registerGuarantee("Gold ring")
}

func (s *LedgerSuite) registerClient(document string) *domain.Client {
	client, err := s.catalog.RegisterClient(s.ctx, &domain.CreateClientRequest{
		FullName:       "Client " + document,
		DocumentNumber: document,
	})
	s.Require().NoError(err)
	return client
}

func (s *LedgerSuite) registerGuarantee(name string) *domain.Guarantee {
	guarantee, err := s.catalog.RegisterGuarantee(s.ctx, &domain.CreateGuaranteeRequest{
		Name:          name,
		DeclaredValue: decimal.NewFromInt(900),
	})
	s.Require().NoError(err)
	return guarantee
}

func (s *LedgerSuite) originate(clientID, guaranteeID uuid.UUID) (*domain.Loan, error) {
	return s.ledger.OriginateLoan(s.ctx, &domain.OriginateLoanRequest{
		ClientID:    clientID,
		RatePlanID:  s.plan.ID,
		GuaranteeID: guaranteeID,
	})
}

func (s *LedgerSuite) mustOriginate() *domain.Loan {
	loan, err := s.originate(s.client.ID, s.guarantee.ID)
	s.Require().NoError(err)
	return loan
}

func (s *LedgerSuite) pay(loanID uuid.UUID, amount int64) *domain.Loan {
	loan, err := s.ledger.PostPayment(s.ctx, loanID, decimal.NewFromInt(amount), time.Time{})
	s.Require().NoError(err)
	return loan
}

func (s *LedgerSuite) lockHolder(guaranteeID uuid.UUID) *uuid.UUID {
	guarantee, err := s.catalog.GetGuarantee(s.ctx, guaranteeID)
	s.Require().NoError(err)
	return guarantee.LockedByLoanID
}

func (s *LedgerSuite) assertMoney(expected int64, actual decimal.Decimal, field string) {
	s.True(actual.Equal(decimal.NewFromInt(expected)), "%s: expected %d, got %s", field, expected, actual)
}

func (s *LedgerSuite) assertKind(err error, kind customError.Kind, sentinel error) {
	s.Require().Error(err)
	s.Equal(kind, customError.KindOf(err))
	s.ErrorIs(err, sentinel)
}

func (s *LedgerSuite) TestRepaymentLifecycle() {
	// Origination
	loan := s.mustOriginate()
	s.assertMoney(630, loan.TotalAmount, "total")
	s.assertMoney(630, loan.Balance, "balance")
	s.Equal(domain.LoanStatusActive, loan.Status)
	s.Require().NotNil(s.lockHolder(s.guarantee.ID))
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	// Five weekly payments
	for i := 0; i < 5; i++ {
		s.now = s.now.AddDate(0, 0, 7)
		loan = s.pay(loan.ID, 105)
	}
	s.assertMoney(525, loan.PaidAmount, "paid")
	s.assertMoney(105, loan.Balance, "balance")
	s.Equal(domain.LoanStatusActive, loan.Status)

	// Sixth payment settles the loan
	s.now = s.now.AddDate(0, 0, 7)
	loan = s.pay(loan.ID, 105)
	s.assertMoney(630, loan.PaidAmount, "paid")
	s.True(loan.Balance.IsZero())
	s.Equal(domain.LoanStatusPaid, loan.Status)
	s.Require().NotNil(loan.CompletedAt)
	s.True(loan.CompletedAt.Equal(s.now))
	s.Nil(s.lockHolder(s.guarantee.ID))

	// Reversing the sixth payment reopens it
	payments, err := s.ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 6)
	last := payments[len(payments)-1]
	s.True(last.PaymentDate.Equal(s.now))

	loan, err = s.ledger.ReversePayment(s.ctx, last.ID)
	s.Require().NoError(err)
	s.assertMoney(525, loan.PaidAmount, "paid")
	s.assertMoney(105, loan.Balance, "balance")
	s.Equal(domain.LoanStatusActive, loan.Status)
	s.Nil(loan.CompletedAt)
	s.Require().NotNil(s.lockHolder(s.guarantee.ID))
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	stored, err := s.ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.assertMoney(105, stored.Balance, "stored balance")
	s.Nil(stored.CompletedAt)

	// The client still owes money
	_, err = s.originate(s.client.ID, s.registerGuarantee("Watch").ID)
	s.assertKind(err, customError.KindConflict, customError.ErrActiveLoanExists)

	// Loans with payments cannot be deleted
	err = s.ledger.DeleteLoan(s.ctx, loan.ID)
	s.assertKind(err, customError.KindHasDependents, customError.ErrHasPayments)
}

func (s *LedgerSuite) TestReversalRestoresExactTotals() {
	loan := s.mustOriginate()
	s.pay(loan.ID, 100)
	s.pay(loan.ID, 33)

	payments, err := s.ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 2)

	loan, err = s.ledger.ReversePayment(s.ctx, payments[1].ID)
	s.Require().NoError(err)
	s.assertMoney(100, loan.PaidAmount, "paid")
	s.assertMoney(530, loan.Balance, "balance")

	_, err = s.ledger.ReversePayment(s.ctx, payments[1].ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrPaymentNotFound)
}

func (s *LedgerSuite) TestOverpaymentFloorsBalance() {
	loan := s.mustOriginate()

	loan = s.pay(loan.ID, 700)
	s.assertMoney(700, loan.PaidAmount, "paid")
	s.True(loan.Balance.IsZero())
	s.Equal(domain.LoanStatusPaid, loan.Status)
	s.Nil(s.lockHolder(s.guarantee.ID))

	// A further payment on a paid loan keeps its completion time
	completedAt := *loan.CompletedAt
	s.now = s.now.AddDate(0, 0, 1)
	loan = s.pay(loan.ID, 10)
	s.Equal(domain.LoanStatusPaid, loan.Status)
	s.True(loan.CompletedAt.Equal(completedAt))
}

// paymentOf returns the loan's journal entry for amount
func (s *LedgerSuite) paymentOf(loanID uuid.UUID, amount int64) *domain.Payment {
	payments, err := s.ledger.ListPayments(s.ctx, loanID)
	s.Require().NoError(err)
	for _, payment := range payments {
		if payment.Amount.Equal(decimal.NewFromInt(amount)) {
			return payment
		}
	}
	s.FailNow("payment not found", "no payment of %d on loan %s", amount, loanID)
	return nil
}

func (s *LedgerSuite) TestReversalThatStillSettlesKeepsLoanPaid() {
	loan := s.mustOriginate()
	loan = s.pay(loan.ID, 630)
	completedAt := *loan.CompletedAt

	s.now = s.now.AddDate(0, 0, 2)
	s.pay(loan.ID, 10)

	s.now = s.now.AddDate(0, 0, 1)
	loan, err := s.ledger.ReversePayment(s.ctx, s.paymentOf(loan.ID, 10).ID)
	s.Require().NoError(err)

	s.Equal(domain.LoanStatusPaid, loan.Status)
	s.True(loan.Balance.IsZero())
	s.assertMoney(630, loan.PaidAmount, "paid")
	s.Require().NotNil(loan.CompletedAt)
	s.True(loan.CompletedAt.Equal(completedAt))
	s.Nil(s.lockHolder(s.guarantee.ID))

	stored, err := s.ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusPaid, stored.Status)
	s.True(stored.CompletedAt.Equal(completedAt))

	// The guarantee is still free for another client
	other := s.registerClient("DOC-C2")
	_, err = s.originate(other.ID, s.guarantee.ID)
	s.NoError(err)
}

func (s *LedgerSuite) TestReversalOnOverdueLoanKeepsStatus() {
	loan := s.mustOriginate()
	s.pay(loan.ID, 105)

	s.now = s.now.AddDate(0, 0, 43)
	marked, err := s.ledger.MarkOverdueLoans(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, marked)

	loan, err = s.ledger.ReversePayment(s.ctx, s.paymentOf(loan.ID, 105).ID)
	s.Require().NoError(err)

	s.Equal(domain.LoanStatusOverdue, loan.Status)
	s.True(loan.PaidAmount.IsZero())
	s.assertMoney(630, loan.Balance, "balance")
	s.Nil(loan.CompletedAt)
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	payments, err := s.ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Empty(payments)
}

func (s *LedgerSuite) TestPostPaymentRejectsBadInput() {
	loan := s.mustOriginate()

	_, err := s.ledger.PostPayment(s.ctx, loan.ID, decimal.Zero, time.Time{})
	s.assertKind(err, customError.KindInvalidInput, customError.ErrInvalidPaymentAmount)

	_, err = s.ledger.PostPayment(s.ctx, uuid.New(), decimal.NewFromInt(10), time.Time{})
	s.assertKind(err, customError.KindNotFound, customError.ErrLoanNotFound)
}

func (s *LedgerSuite) TestGuaranteeIsExclusive() {
	s.mustOriginate()
	other := s.registerClient("DOC-C2")

	available, err := s.catalog.IsGuaranteeAvailable(s.ctx, s.guarantee.ID)
	s.Require().NoError(err)
	s.False(available)

	_, err = s.originate(other.ID, s.guarantee.ID)
	s.assertKind(err, customError.KindConflict, customError.ErrGuaranteeUnavailable)

	err = s.ledger.CheckOriginationEligibility(s.ctx, other.ID, s.guarantee.ID)
	s.assertKind(err, customError.KindConflict, customError.ErrGuaranteeUnavailable)

	err = s.ledger.CheckOriginationEligibility(s.ctx, other.ID, uuid.New())
	s.assertKind(err, customError.KindConflict, customError.ErrGuaranteeUnavailable)
}

func (s *LedgerSuite) TestOriginationRejectsMissingEntitiesAndInactivePlan() {
	_, err := s.originate(uuid.New(), s.guarantee.ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrClientNotFound)

	_, err = s.originate(s.client.ID, uuid.New())
	s.assertKind(err, customError.KindNotFound, customError.ErrGuaranteeNotFound)

	inactive := false
	_, err = s.catalog.UpdateRatePlan(s.ctx, s.plan.ID, &domain.RatePlanRequest{
		Amount:        s.plan.Amount,
		WeeklyPayment: s.plan.WeeklyPayment,
		Installments:  s.plan.Installments,
		Active:        &inactive,
	})
	s.Require().NoError(err)

	_, err = s.originate(s.client.ID, s.guarantee.ID)
	s.assertKind(err, customError.KindInvalidState, customError.ErrInvalidRate)
	s.Nil(s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestCancelledLoanStillBlocksClient() {
	loan := s.mustOriginate()

	loan, err := s.ledger.SetLoanStatus(s.ctx, loan.ID, "CANCELLED")
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusCancelled, loan.Status)
	s.Nil(loan.CompletedAt)
	s.Nil(s.lockHolder(s.guarantee.ID))

	err = s.ledger.CheckOriginationEligibility(s.ctx, s.client.ID, s.guarantee.ID)
	s.assertKind(err, customError.KindConflict, customError.ErrActiveLoanExists)

	other := s.registerClient("DOC-C2")
	s.NoError(s.ledger.CheckOriginationEligibility(s.ctx, other.ID, s.guarantee.ID))

	err = s.ledger.CheckOriginationEligibility(s.ctx, uuid.New(), s.guarantee.ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrClientNotFound)
}

func (s *LedgerSuite) TestPaidLoanDoesNotBlockClient() {
	loan := s.mustOriginate()
	s.pay(loan.ID, 630)

	s.NoError(s.ledger.CheckOriginationEligibility(s.ctx, s.client.ID, s.guarantee.ID))

	second, err := s.originate(s.client.ID, s.guarantee.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, *s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestSetLoanStatusKeepsLockInStep() {
	loan := s.mustOriginate()

	loan, err := s.ledger.SetLoanStatus(s.ctx, loan.ID, "PAID")
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusPaid, loan.Status)
	s.Require().NotNil(loan.CompletedAt)
	s.assertMoney(630, loan.Balance, "balance untouched")
	s.Nil(s.lockHolder(s.guarantee.ID))

	loan, err = s.ledger.SetLoanStatus(s.ctx, loan.ID, "OVERDUE")
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusOverdue, loan.Status)
	s.Nil(loan.CompletedAt)
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	loan, err = s.ledger.SetLoanStatus(s.ctx, loan.ID, "ACTIVE")
	s.Require().NoError(err)
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	_, err = s.ledger.SetLoanStatus(s.ctx, loan.ID, "closed")
	s.assertKind(err, customError.KindInvalidState, customError.ErrInvalidStatus)
}

func (s *LedgerSuite) TestReopeningFailsWhenGuaranteePledgedElsewhere() {
	first := s.mustOriginate()
	_, err := s.ledger.SetLoanStatus(s.ctx, first.ID, "CANCELLED")
	s.Require().NoError(err)

	other := s.registerClient("DOC-C2")
	second, err := s.originate(other.ID, s.guarantee.ID)
	s.Require().NoError(err)

	_, err = s.ledger.SetLoanStatus(s.ctx, first.ID, "ACTIVE")
	s.assertKind(err, customError.KindConflict, customError.ErrGuaranteeUnavailable)

	stored, err := s.ledger.GetLoan(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusCancelled, stored.Status)
	s.Equal(second.ID, *s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestReversalReopenFailsWhenGuaranteePledgedElsewhere() {
	first := s.mustOriginate()
	s.pay(first.ID, 630)

	other := s.registerClient("DOC-C2")
	second, err := s.originate(other.ID, s.guarantee.ID)
	s.Require().NoError(err)

	payments, err := s.ledger.ListPayments(s.ctx, first.ID)
	s.Require().NoError(err)

	_, err = s.ledger.ReversePayment(s.ctx, payments[0].ID)
	s.assertKind(err, customError.KindConflict, customError.ErrGuaranteeUnavailable)

	// Nothing was applied
	stored, err := s.ledger.GetLoan(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusPaid, stored.Status)
	s.assertMoney(630, stored.PaidAmount, "paid")
	payments, err = s.ledger.ListPayments(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Len(payments, 1)
	s.Equal(second.ID, *s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestDeleteLoanReleasesGuarantee() {
	loan := s.mustOriginate()

	s.Require().NoError(s.ledger.DeleteLoan(s.ctx, loan.ID))
	s.Nil(s.lockHolder(s.guarantee.ID))

	_, err := s.ledger.GetLoan(s.ctx, loan.ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrLoanNotFound)

	err = s.ledger.DeleteLoan(s.ctx, loan.ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrLoanNotFound)

	// The client is free again
	_, err = s.originate(s.client.ID, s.guarantee.ID)
	s.NoError(err)
}

func (s *LedgerSuite) TestMarkOverdueLoans() {
	loan := s.mustOriginate()

	marked, err := s.ledger.MarkOverdueLoans(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, marked)

	s.now = s.now.AddDate(0, 0, 43)
	marked, err = s.ledger.MarkOverdueLoans(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, marked)

	stored, err := s.ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(domain.LoanStatusOverdue, stored.Status)
	s.Equal(loan.ID, *s.lockHolder(s.guarantee.ID))

	marked, err = s.ledger.MarkOverdueLoans(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, marked)

	// Paying an overdue loan off settles it
	stored = s.pay(loan.ID, 630)
	s.Equal(domain.LoanStatusPaid, stored.Status)
	s.Nil(s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestScheduleReflectsPayments() {
	loan := s.mustOriginate()
	s.pay(loan.ID, 210)

	s.now = s.now.AddDate(0, 0, 22)
	schedule, err := s.ledger.GetSchedule(s.ctx, loan.ID)
	s.Require().NoError(err)

	s.Equal(4, schedule.CurrentWeek)
	s.assertMoney(420, schedule.Balance, "balance")
	s.Require().Len(schedule.Installments, 6)
	s.Equal(domain.InstallmentStatusPaid, schedule.Installments[1].Status)
	s.Equal(domain.InstallmentStatusOverdue, schedule.Installments[2].Status)
	s.Equal(domain.InstallmentStatusPending, schedule.Installments[3].Status)
}

func (s *LedgerSuite) TestConcurrentPaymentsAreAllApplied() {
	loan := s.mustOriginate()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ledger.PostPayment(s.ctx, loan.ID, decimal.NewFromInt(10), time.Time{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	stored, err := s.ledger.GetLoan(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.assertMoney(100, stored.PaidAmount, "paid")
	s.assertMoney(530, stored.Balance, "balance")
	s.Equal(1+workers, stored.Version)

	payments, err := s.ledger.ListPayments(s.ctx, loan.ID)
	s.Require().NoError(err)
	s.Len(payments, workers)
}

func (s *LedgerSuite) TestConcurrentOriginationPledgesOnce() {
	const clients = 5
	ids := make([]uuid.UUID, clients)
	for i := range ids {
		ids[i] = s.registerClient(uuid.NewString()).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, clients)
	for _, id := range ids {
		wg.Add(1)
		go func(clientID uuid.UUID) {
			defer wg.Done()
			_, err := s.originate(clientID, s.guarantee.ID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, customError.ErrGuaranteeUnavailable)
	}
	s.Equal(1, succeeded)
	s.NotNil(s.lockHolder(s.guarantee.ID))
}

func (s *LedgerSuite) TestCatalogDeletesProtectLoans() {
	loan := s.mustOriginate()

	err := s.catalog.DeleteClient(s.ctx, s.client.ID)
	s.assertKind(err, customError.KindHasDependents, customError.ErrClientHasLoans)

	err = s.catalog.DeleteGuarantee(s.ctx, s.guarantee.ID)
	s.assertKind(err, customError.KindHasDependents, customError.ErrGuaranteeInUse)

	err = s.catalog.DeleteRatePlan(s.ctx, s.plan.ID)
	s.assertKind(err, customError.KindHasDependents, customError.ErrRatePlanInUse)

	// Settled loans keep protecting the history
	s.pay(loan.ID, 630)
	err = s.catalog.DeleteClient(s.ctx, s.client.ID)
	s.assertKind(err, customError.KindHasDependents, customError.ErrClientHasLoans)

	unused := s.registerClient("DOC-UNUSED")
	s.NoError(s.catalog.DeleteClient(s.ctx, unused.ID))
	_, err = s.catalog.GetClient(s.ctx, unused.ID)
	s.assertKind(err, customError.KindNotFound, customError.ErrClientNotFound)

	spare := s.registerGuarantee("Spare")
	s.NoError(s.catalog.DeleteGuarantee(s.ctx, spare.ID))
}

func (s *LedgerSuite) TestRatePlanRules() {
	_, err := s.catalog.CreateRatePlan(s.ctx, &domain.RatePlanRequest{
		Amount:        decimal.RequireFromString("500.00"),
		WeeklyPayment: decimal.NewFromInt(60),
		Installments:  10,
	})
	s.assertKind(err, customError.KindConflict, customError.ErrDuplicateRatePlan)

	inactive := false
	draft, err := s.catalog.CreateRatePlan(s.ctx, &domain.RatePlanRequest{
		Amount:        decimal.NewFromInt(500),
		WeeklyPayment: decimal.NewFromInt(60),
		Installments:  10,
		Active:        &inactive,
	})
	s.Require().NoError(err)
	s.False(draft.Active)

	found, err := s.catalog.GetActiveRatePlan(s.ctx, decimal.NewFromInt(500))
	s.Require().NoError(err)
	s.Equal(s.plan.ID, found.ID)

	_, err = s.catalog.GetActiveRatePlan(s.ctx, decimal.NewFromInt(750))
	s.assertKind(err, customError.KindNotFound, customError.ErrRatePlanNotFound)

	_, err = s.catalog.CreateRatePlan(s.ctx, &domain.RatePlanRequest{
		Amount:        decimal.NewFromInt(750),
		WeeklyPayment: decimal.Zero,
		Installments:  5,
	})
	s.assertKind(err, customError.KindInvalidInput, customError.ErrInvalidRatePlan)

	// Terms are frozen once a loan uses the plan; the active flag is not
	s.mustOriginate()
	_, err = s.catalog.UpdateRatePlan(s.ctx, s.plan.ID, &domain.RatePlanRequest{
		Amount:        s.plan.Amount,
		WeeklyPayment: decimal.NewFromInt(110),
		Installments:  s.plan.Installments,
	})
	s.assertKind(err, customError.KindHasDependents, customError.ErrRatePlanInUse)

	updated, err := s.catalog.UpdateRatePlan(s.ctx, s.plan.ID, &domain.RatePlanRequest{
		Amount:        s.plan.Amount,
		WeeklyPayment: s.plan.WeeklyPayment,
		Installments:  s.plan.Installments,
		Active:        &inactive,
	})
	s.Require().NoError(err)
	s.False(updated.Active)

	plans, err := s.catalog.ListActiveRatePlans(s.ctx)
	s.Require().NoError(err)
	s.Empty(plans)
}

func (s *LedgerSuite) TestDuplicateClientDocument() {
	_, err := s.catalog.RegisterClient(s.ctx, &domain.CreateClientRequest{
		FullName:       "Someone else",
		DocumentNumber: s.client.DocumentNumber,
	})
	s.assertKind(err, customError.KindConflict, customError.ErrDuplicateClient)
}
