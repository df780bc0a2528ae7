package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collateral-ledger/pkg/utils"
)

// Client is a borrower
type Client struct {
	ID             uuid.UUID `json:"id" db:"id"`
	FullName       string    `json:"full_name" db:"full_name"`
	DocumentNumber string    `json:"document_number" db:"document_number"`
	Phone          string    `json:"phone" db:"phone"`
	Address        string    `json:"address" db:"address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Guarantee is a collateral item. LockedByLoanID is set while an outstanding
// loan holds the item and is the only source of truth for availability.
type Guarantee struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	DeclaredValue  decimal.Decimal `json:"declared_value" db:"declared_value"`
	LockedByLoanID *uuid.UUID      `json:"locked_by_loan_id,omitempty" db:"locked_by_loan_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsAvailable reports whether the item can be pledged
func (g *Guarantee) IsAvailable() bool {
	return g.LockedByLoanID == nil
}

// RatePlan maps a loan amount to its weekly installment and installment count
type RatePlan struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	WeeklyPayment decimal.Decimal `json:"weekly_payment" db:"weekly_payment"`
	Installments  int             `json:"installments" db:"installments"`
	Active        bool            `json:"active" db:"active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalAmount is what a loan on this plan owes in full
func (p *RatePlan) TotalAmount() decimal.Decimal {
	return utils.CalculateTotalAmount(p.WeeklyPayment, p.Installments)
}

type CreateClientRequest struct {
	FullName       string `json:"full_name" validate:"required,max=200"`
	DocumentNumber string `json:"document_number" validate:"required,max=50"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
	Address        string `json:"address" validate:"omitempty,max=255"`
}

type CreateGuaranteeRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"omitempty,max=1000"`
	DeclaredValue decimal.Decimal `json:"declared_value" validate:"decimal_gte=0"`
}

type RatePlanRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	WeeklyPayment decimal.Decimal `json:"weekly_payment" validate:"decimal_gt=0"`
	Installments  int             `json:"installments" validate:"required,gt=0"`
	Active        *bool           `json:"active,omitempty"`
}

type GuaranteeResponse struct {
	Guarantee *Guarantee `json:"guarantee"`
	Available bool       `json:"available"`
}
