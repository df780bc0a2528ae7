package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/pkg/response"
)

// LedgerService is what the loan and payment routes need from the ledger
type LedgerService interface {
	OriginateLoan(ctx context.Context, request *domain.OriginateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error)
	ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)
	PostPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, paymentDate time.Time) (*domain.Loan, error)
	ReversePayment(ctx context.Context, paymentID uuid.UUID) (*domain.Loan, error)
	SetLoanStatus(ctx context.Context, loanID uuid.UUID, status string) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, loanID uuid.UUID) error
	CheckOriginationEligibility(ctx context.Context, clientID, guaranteeID uuid.UUID) error
}

// CatalogService is what the client, guarantee and rate plan routes need
type CatalogService interface {
	RegisterClient(ctx context.Context, request *domain.CreateClientRequest) (*domain.Client, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*domain.Client, error)
	DeleteClient(ctx context.Context, clientID uuid.UUID) error

	RegisterGuarantee(ctx context.Context, request *domain.CreateGuaranteeRequest) (*domain.Guarantee, error)
	GetGuarantee(ctx context.Context, guaranteeID uuid.UUID) (*domain.Guarantee, error)
	IsGuaranteeAvailable(ctx context.Context, guaranteeID uuid.UUID) (bool, error)
	DeleteGuarantee(ctx context.Context, guaranteeID uuid.UUID) error

	CreateRatePlan(ctx context.Context, request *domain.RatePlanRequest) (*domain.RatePlan, error)
	UpdateRatePlan(ctx context.Context, ratePlanID uuid.UUID, request *domain.RatePlanRequest) (*domain.RatePlan, error)
	GetRatePlan(ctx context.Context, ratePlanID uuid.UUID) (*domain.RatePlan, error)
	GetActiveRatePlan(ctx context.Context, amount decimal.Decimal) (*domain.RatePlan, error)
	ListActiveRatePlans(ctx context.Context) ([]*domain.RatePlan, error)
	DeleteRatePlan(ctx context.Context, ratePlanID uuid.UUID) error
}

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body: "+err.Error())
		return false
	}

	if err := v.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(invalid))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}

	return true
}

func validationMessage(errs validator.ValidationErrors) string {
	first := errs[0]
	if first.Param() != "" {
		return first.Field() + " failed " + first.Tag() + "=" + first.Param()
	}
	return first.Field() + " failed " + first.Tag()
}

// pathUUID parses the named route variable, writing a 400 if it is not a UUID
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
