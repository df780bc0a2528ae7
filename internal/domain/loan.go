package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusPaid      LoanStatus = "PAID"
	LoanStatusOverdue   LoanStatus = "OVERDUE"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// ParseLoanStatus returns the status named by s and whether it is one of the enumerated values
func ParseLoanStatus(s string) (LoanStatus, bool) {
	switch status := LoanStatus(s); status {
	case LoanStatusActive, LoanStatusPaid, LoanStatusOverdue, LoanStatusCancelled:
		return status, true
	default:
		return status, false
	}
}

// IsTerminal reports whether a loan in this status no longer holds its guarantee
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusPaid || s == LoanStatusCancelled
}

// OutstandingStatuses are the statuses that hold a guarantee
var OutstandingStatuses = []LoanStatus{LoanStatusActive, LoanStatusOverdue}

// Loan represents a loan entity.
// Amount, WeeklyPayment, Installments and TotalAmount are copied from the
// rate plan at origination and never recomputed from it.
type Loan struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ClientID      uuid.UUID       `json:"client_id" db:"client_id"`
	RatePlanID    uuid.UUID       `json:"rate_plan_id" db:"rate_plan_id"`
	GuaranteeID   uuid.UUID       `json:"guarantee_id" db:"guarantee_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	WeeklyPayment decimal.Decimal `json:"weekly_payment" db:"weekly_payment"`
	Installments  int             `json:"installments" db:"installments"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	Status        LoanStatus      `json:"status" db:"status"`
	OriginatedAt  time.Time       `json:"originated_at" db:"originated_at"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// SetPaidAmount records a new paid-to-date total and recomputes the balance
func (l *Loan) SetPaidAmount(paid decimal.Decimal) {
	l.PaidAmount = paid
	l.Balance = OutstandingBalance(l.TotalAmount, paid)
}

// IsSettled reports whether nothing remains to be paid
func (l *Loan) IsSettled() bool {
	return !l.Balance.IsPositive()
}

// OutstandingBalance returns max(total - paid, 0)
func OutstandingBalance(total, paid decimal.Decimal) decimal.Decimal {
	balance := total.Sub(paid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// DTOs for requests and responses

type OriginateLoanRequest struct {
	ClientID    uuid.UUID `json:"client_id" validate:"required"`
	RatePlanID  uuid.UUID `json:"rate_plan_id" validate:"required"`
	GuaranteeID uuid.UUID `json:"guarantee_id" validate:"required"`
}

type SetLoanStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type EligibilityResponse struct {
	ClientID    uuid.UUID `json:"client_id"`
	GuaranteeID uuid.UUID `json:"guarantee_id"`
	Eligible    bool      `json:"eligible"`
	Reason      string    `json:"reason,omitempty"`
}
