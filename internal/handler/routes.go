package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/pkg/ratelimit"
	"github.com/segyhp/collateral-ledger/pkg/response"
)

// NewRouter wires every route. limiter may be nil to disable throttling.
func NewRouter(
	ledger *LedgerHandler,
	catalog *CatalogHandler,
	health *HealthHandler,
	log *zap.Logger,
	limiter *ratelimit.RateLimiter,
) http.Handler {
	router := mux.NewRouter()
	router.Use(response.RecoveryMiddleware(log), response.LoggingMiddleware(log))

	// Health check
	if health != nil {
		router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
		router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	api.HandleFunc("/clients", catalog.RegisterClient).Methods(http.MethodPost)
	api.HandleFunc("/clients/{clientId}", catalog.GetClient).Methods(http.MethodGet)
	api.HandleFunc("/clients/{clientId}", catalog.DeleteClient).Methods(http.MethodDelete)
	api.HandleFunc("/clients/{clientId}/eligibility", ledger.CheckEligibility).Methods(http.MethodGet)

	api.HandleFunc("/guarantees", catalog.RegisterGuarantee).Methods(http.MethodPost)
	api.HandleFunc("/guarantees/{guaranteeId}", catalog.GetGuarantee).Methods(http.MethodGet)
	api.HandleFunc("/guarantees/{guaranteeId}", catalog.DeleteGuarantee).Methods(http.MethodDelete)

	api.HandleFunc("/rate-plans", catalog.CreateRatePlan).Methods(http.MethodPost)
	api.HandleFunc("/rate-plans", catalog.ListRatePlans).Methods(http.MethodGet)
	api.HandleFunc("/rate-plans/{ratePlanId}", catalog.GetRatePlan).Methods(http.MethodGet)
	api.HandleFunc("/rate-plans/{ratePlanId}", catalog.UpdateRatePlan).Methods(http.MethodPut)
	api.HandleFunc("/rate-plans/{ratePlanId}", catalog.DeleteRatePlan).Methods(http.MethodDelete)

	api.HandleFunc("/loans", ledger.OriginateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", ledger.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}", ledger.DeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{loanId}/schedule", ledger.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/status", ledger.SetLoanStatus).Methods(http.MethodPatch)
	api.HandleFunc("/loans/{loanId}/payments", ledger.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", ledger.PostPayment).Methods(http.MethodPost)

	api.HandleFunc("/payments/{paymentId}", ledger.ReversePayment).Methods(http.MethodDelete)

	return response.CORSMiddleware(router)
}
