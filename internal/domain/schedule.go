package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collateral-ledger/pkg/utils"
)

const (
	InstallmentStatusPending = "PENDING"
	InstallmentStatusPaid    = "PAID"
	InstallmentStatusOverdue = "OVERDUE"
)

// Installment is one week of a loan's repayment plan. Installments are not
// stored; they are derived from the loan's frozen terms and its paid amount.
type Installment struct {
	Number    int             `json:"number"`
	DueAmount decimal.Decimal `json:"due_amount"`
	DueDate   time.Time       `json:"due_date"`
	Status    string          `json:"status"`
}

type ScheduleResponse struct {
	LoanID       uuid.UUID       `json:"loan_id"`
	Status       LoanStatus      `json:"status"`
	CurrentWeek  int             `json:"current_week"`
	Balance      decimal.Decimal `json:"balance"`
	Installments []*Installment  `json:"installments"`
}

// NewScheduleResponse builds the schedule view of l as of now
func NewScheduleResponse(l *Loan, now time.Time) *ScheduleResponse {
	week := utils.GetCurrentWeek(l.OriginatedAt, now)
	if week > l.Installments {
		week = l.Installments
	}

	return &ScheduleResponse{
		LoanID:       l.ID,
		Status:       l.Status,
		CurrentWeek:  week,
		Balance:      l.Balance,
		Installments: l.Schedule(now),
	}
}

// Schedule derives the loan's installments as of now. An installment is PAID
// once the paid amount covers it and every installment before it.
func (l *Loan) Schedule(now time.Time) []*Installment {
	installments := make([]*Installment, 0, l.Installments)
	for week := 1; week <= l.Installments; week++ {
		dueDate := utils.CalculateDueDate(l.OriginatedAt, week)
		covered := l.PaidAmount.Sub(l.WeeklyPayment.Mul(decimal.NewFromInt(int64(week - 1))))

		status := InstallmentStatusPending
		switch {
		case covered.GreaterThanOrEqual(l.WeeklyPayment):
			status = InstallmentStatusPaid
		case utils.IsDateOverdue(dueDate, now):
			status = InstallmentStatusOverdue
		}

		installments = append(installments, &Installment{
			Number:    week,
			DueAmount: l.WeeklyPayment,
			DueDate:   dueDate,
			Status:    status,
		})
	}
	return installments
}
