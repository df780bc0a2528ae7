package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

// PostPayment records a payment against a loan and applies it to the running
// totals. Settling the balance marks the loan PAID and releases its guarantee
// unless the loan was cancelled. A zero paymentDate means now.
func (s *LedgerService) PostPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, paymentDate time.Time) (loan *domain.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.PostPayment", trace.WithAttributes(
		attribute.String("loan.id", loanID.String()),
		attribute.String("payment.amount", amount.String()),
	))
	defer func() { endSpan(span, err) }()

	if !amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(amount.String())
	}

	var payment *domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		loan, err = repos.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return lookupError(err, customError.WrapLoanNotFound, loanID)
		}

		now := s.now()
		if paymentDate.IsZero() {
			paymentDate = now
		}

		payment = &domain.Payment{
			ID:          uuid.New(),
			LoanID:      loan.ID,
			Amount:      amount,
			PaymentDate: paymentDate,
			CreatedAt:   now,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}

		loan.SetPaidAmount(loan.PaidAmount.Add(amount))
		loan.UpdatedAt = now

		if loan.IsSettled() && loan.Status != domain.LoanStatusCancelled {
			if loan.Status != domain.LoanStatusPaid {
				loan.Status = domain.LoanStatusPaid
				loan.CompletedAt = &now
			}
			if err := releaseGuarantee(ctx, repos, loan, now); err != nil {
				return err
			}
		}

		return updateLoan(ctx, repos, loan)
	})
	if err != nil {
		err = asBusinessError(err)
		s.log.Warn("Payment rejected",
			zap.String("loan_id", loanID.String()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.invalidate(ctx, loan.ID)
	s.metrics.paymentsPosted.Add(ctx, 1)
	s.log.Info("Payment posted",
		zap.String("loan_id", loan.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("balance", loan.Balance.String()),
		zap.String("status", string(loan.Status)),
	)

	return loan, nil
}

// ReversePayment deletes a payment and takes its amount back off the loan.
// A PAID loan that owes money again goes back to ACTIVE and re-pledges its
// guarantee; if the item was pledged elsewhere meanwhile nothing changes.
func (s *LedgerService) ReversePayment(ctx context.Context, paymentID uuid.UUID) (loan *domain.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ReversePayment", trace.WithAttributes(
		attribute.String("payment.id", paymentID.String()),
	))
	defer func() { endSpan(span, err) }()

	var payment *domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		payment, err = repos.Payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return lookupError(err, customError.WrapPaymentNotFound, paymentID)
		}

		loan, err = repos.Loans.GetByIDForUpdate(ctx, payment.LoanID)
		if err != nil {
			return lookupError(err, customError.WrapLoanNotFound, payment.LoanID)
		}

		if err := repos.Payments.Delete(ctx, payment.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// A concurrent reversal got there first
				return customError.WrapPaymentNotFound(payment.ID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		now := s.now()
		wasPaid := loan.Status == domain.LoanStatusPaid
		loan.SetPaidAmount(loan.PaidAmount.Sub(payment.Amount))
		loan.UpdatedAt = now

		switch {
		case loan.IsSettled():
			if loan.Status != domain.LoanStatusCancelled && !wasPaid {
				loan.Status = domain.LoanStatusPaid
				loan.CompletedAt = &now
				if err := releaseGuarantee(ctx, repos, loan, now); err != nil {
					return err
				}
			}
		case wasPaid:
			loan.Status = domain.LoanStatusActive
			loan.CompletedAt = nil
			if err := pledgeGuarantee(ctx, repos, loan, now); err != nil {
				return err
			}
		}

		return updateLoan(ctx, repos, loan)
	})
	if err != nil {
		err = asBusinessError(err)
		s.log.Warn("Payment reversal rejected", zap.String("payment_id", paymentID.String()), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, loan.ID)
	s.metrics.paymentsReversed.Add(ctx, 1)
	s.log.Info("Payment reversed",
		zap.String("loan_id", loan.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("balance", loan.Balance.String()),
		zap.String("status", string(loan.Status)),
	)

	return loan, nil
}
