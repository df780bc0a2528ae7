package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a BusinessError so callers can react without matching codes
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindInvalidState   Kind = "INVALID_STATE"
	KindHasDependents  Kind = "HAS_DEPENDENTS"
	KindInvalidInput   Kind = "INVALID_INPUT"
	KindStorageFailure Kind = "STORAGE_FAILURE"
)

// Domain errors
var (
	ErrClientNotFound         = errors.New("client not found")
	ErrGuaranteeNotFound      = errors.New("guarantee not found")
	ErrRatePlanNotFound       = errors.New("rate plan not found")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidRate            = errors.New("rate plan is not active")
	ErrActiveLoanExists       = errors.New("client already has an outstanding loan")
	ErrGuaranteeUnavailable   = errors.New("guarantee is not available")
	ErrInvalidStatus          = errors.New("invalid loan status")
	ErrHasPayments            = errors.New("loan has payments")
	ErrGuaranteeInUse         = errors.New("guarantee is referenced by loans")
	ErrRatePlanInUse          = errors.New("rate plan is referenced by loans")
	ErrClientHasLoans         = errors.New("client has loans")
	ErrDuplicateRatePlan      = errors.New("an active rate plan already exists for this amount")
	ErrDuplicateClient        = errors.New("client already exists")
	ErrConcurrentModification = errors.New("loan was modified concurrently")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrInvalidRatePlan        = errors.New("invalid rate plan")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first BusinessError in err's chain.
// Errors that never went through this package are storage failures.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindStorageFailure
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Error codes
const (
	ErrCodeClientNotFound         = "CLIENT_NOT_FOUND"
	ErrCodeGuaranteeNotFound      = "GUARANTEE_NOT_FOUND"
	ErrCodeRatePlanNotFound       = "RATE_PLAN_NOT_FOUND"
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodePaymentNotFound        = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidRate            = "INVALID_RATE"
	ErrCodeActiveLoanExists       = "ACTIVE_LOAN_EXISTS"
	ErrCodeGuaranteeUnavailable   = "GUARANTEE_UNAVAILABLE"
	ErrCodeInvalidStatus          = "INVALID_STATUS"
	ErrCodeHasPayments            = "HAS_PAYMENTS"
	ErrCodeGuaranteeInUse         = "GUARANTEE_IN_USE"
	ErrCodeRatePlanInUse          = "RATE_PLAN_IN_USE"
	ErrCodeClientHasLoans         = "CLIENT_HAS_LOANS"
	ErrCodeDuplicateRatePlan      = "DUPLICATE_RATE_PLAN"
	ErrCodeDuplicateClient        = "DUPLICATE_CLIENT"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeInvalidPaymentAmount   = "INVALID_PAYMENT_AMOUNT"
	ErrCodeInvalidRatePlan        = "INVALID_RATE_PLAN"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

func WrapClientNotFound(id string) *BusinessError {
	return NewBusinessError(KindNotFound, ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %s not found", id), ErrClientNotFound)
}

func WrapGuaranteeNotFound(id string) *BusinessError {
	return NewBusinessError(KindNotFound, ErrCodeGuaranteeNotFound,
		fmt.Sprintf("Guarantee with ID %s not found", id), ErrGuaranteeNotFound)
}

func WrapRatePlanNotFound(id string) *BusinessError {
	return NewBusinessError(KindNotFound, ErrCodeRatePlanNotFound,
		fmt.Sprintf("Rate plan with ID %s not found", id), ErrRatePlanNotFound)
}

func WrapLoanNotFound(id string) *BusinessError {
	return NewBusinessError(KindNotFound, ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", id), ErrLoanNotFound)
}

func WrapPaymentNotFound(id string) *BusinessError {
	return NewBusinessError(KindNotFound, ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", id), ErrPaymentNotFound)
}

func WrapInvalidRate(id string) *BusinessError {
	return NewBusinessError(KindInvalidState, ErrCodeInvalidRate,
		fmt.Sprintf("Rate plan %s is not active", id), ErrInvalidRate)
}

func WrapActiveLoanExists(clientID string) *BusinessError {
	return NewBusinessError(KindConflict, ErrCodeActiveLoanExists,
		fmt.Sprintf("Client %s already has a loan that is not paid", clientID), ErrActiveLoanExists)
}

func WrapGuaranteeUnavailable(guaranteeID string) *BusinessError {
	return NewBusinessError(KindConflict, ErrCodeGuaranteeUnavailable,
		fmt.Sprintf("Guarantee %s is not available for pledge", guaranteeID), ErrGuaranteeUnavailable)
}

func WrapInvalidStatus(status string) *BusinessError {
	return NewBusinessError(KindInvalidState, ErrCodeInvalidStatus,
		fmt.Sprintf("Status %q is not a valid loan status", status), ErrInvalidStatus)
}

func WrapHasPayments(loanID string) *BusinessError {
	return NewBusinessError(KindHasDependents, ErrCodeHasPayments,
		fmt.Sprintf("Loan %s has recorded payments and cannot be deleted", loanID), ErrHasPayments)
}

func WrapGuaranteeInUse(guaranteeID string) *BusinessError {
	return NewBusinessError(KindHasDependents, ErrCodeGuaranteeInUse,
		fmt.Sprintf("Guarantee %s is referenced by loans", guaranteeID), ErrGuaranteeInUse)
}

func WrapRatePlanInUse(ratePlanID string) *BusinessError {
	return NewBusinessError(KindHasDependents, ErrCodeRatePlanInUse,
		fmt.Sprintf("Rate plan %s is referenced by loans", ratePlanID), ErrRatePlanInUse)
}

func WrapClientHasLoans(clientID string) *BusinessError {
	return NewBusinessError(KindHasDependents, ErrCodeClientHasLoans,
		fmt.Sprintf("Client %s has loans", clientID), ErrClientHasLoans)
}

func WrapDuplicateRatePlan(amount string) *BusinessError {
	return NewBusinessError(KindConflict, ErrCodeDuplicateRatePlan,
		fmt.Sprintf("An active rate plan for amount %s already exists", amount), ErrDuplicateRatePlan)
}

func WrapDuplicateClient(documentNumber string) *BusinessError {
	return NewBusinessError(KindConflict, ErrCodeDuplicateClient,
		fmt.Sprintf("Client with document %s already exists", documentNumber), ErrDuplicateClient)
}

func WrapConcurrentModification(loanID string) *BusinessError {
	return NewBusinessError(KindConflict, ErrCodeConcurrentModification,
		fmt.Sprintf("Loan %s was modified by another operation", loanID), ErrConcurrentModification)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(KindInvalidInput, ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount), ErrInvalidPaymentAmount)
}

func WrapInvalidRatePlan(reason string) *BusinessError {
	return NewBusinessError(KindInvalidInput, ErrCodeInvalidRatePlan, reason, ErrInvalidRatePlan)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindStorageFailure,
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		KindStorageFailure,
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
