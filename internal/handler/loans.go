package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/segyhp/collateral-ledger/internal/domain"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
	"github.com/segyhp/collateral-ledger/pkg/response"
)

type LedgerHandler struct {
	ledger    LedgerService
	validator *validator.Validate
}

func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		validator: NewValidator(),
	}
}

// OriginateLoan handles POST /loans
func (h *LedgerHandler) OriginateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.OriginateLoanRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	loan, err := h.ledger.OriginateLoan(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, loan)
}

// GetLoan handles GET /loans/{loanId}
func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.ledger.GetLoan(r.Context(), loanID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// GetSchedule handles GET /loans/{loanId}/schedule
func (h *LedgerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	schedule, err := h.ledger.GetSchedule(r.Context(), loanID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, schedule)
}

// SetLoanStatus handles PATCH /loans/{loanId}/status
func (h *LedgerHandler) SetLoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.SetLoanStatusRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	loan, err := h.ledger.SetLoanStatus(r.Context(), loanID, request.Status)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// DeleteLoan handles DELETE /loans/{loanId}
func (h *LedgerHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	if err := h.ledger.DeleteLoan(r.Context(), loanID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.NoContent(w)
}

// ListPayments handles GET /loans/{loanId}/payments
func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	payments, err := h.ledger.ListPayments(r.Context(), loanID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, payments)
}

// PostPayment handles POST /loans/{loanId}/payments
func (h *LedgerHandler) PostPayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.PostPaymentRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	var paymentDate time.Time
	if request.PaymentDate != nil {
		paymentDate = request.PaymentDate.UTC()
	}

	loan, err := h.ledger.PostPayment(r.Context(), loanID, request.Amount, paymentDate)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, domain.PaymentResponse{Loan: loan})
}

// ReversePayment handles DELETE /payments/{paymentId}
func (h *LedgerHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}

	loan, err := h.ledger.ReversePayment(r.Context(), paymentID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, domain.PaymentResponse{Loan: loan})
}

// CheckEligibility handles GET /clients/{clientId}/eligibility?guarantee_id=
// A conflict is an answer, not a failure: it comes back as eligible=false.
func (h *LedgerHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	guaranteeID, err := uuid.Parse(r.URL.Query().Get("guarantee_id"))
	if err != nil {
		response.BadRequest(w, "Invalid guarantee_id")
		return
	}

	result := domain.EligibilityResponse{
		ClientID:    clientID,
		GuaranteeID: guaranteeID,
		Eligible:    true,
	}

	err = h.ledger.CheckOriginationEligibility(r.Context(), clientID, guaranteeID)
	var be *customError.BusinessError
	switch {
	case err == nil:
	case errors.As(err, &be) && be.Kind == customError.KindConflict:
		result.Eligible = false
		result.Reason = be.Code
	default:
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, result)
}
