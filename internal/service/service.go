package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

const instrumentationName = "github.com/segyhp/collateral-ledger/internal/service"

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

type ledgerMetrics struct {
	loansOriginated  metric.Int64Counter
	paymentsPosted   metric.Int64Counter
	paymentsReversed metric.Int64Counter
	loansOverdue     metric.Int64Counter
}

func newLedgerMetrics() ledgerMetrics {
	meter := otel.Meter(instrumentationName)

	loansOriginated, _ := meter.Int64Counter("ledger.loans.originated",
		metric.WithDescription("Loans originated"),
		metric.WithUnit("{loan}"),
	)
	paymentsPosted, _ := meter.Int64Counter("ledger.payments.posted",
		metric.WithDescription("Payments posted to loans"),
		metric.WithUnit("{payment}"),
	)
	paymentsReversed, _ := meter.Int64Counter("ledger.payments.reversed",
		metric.WithDescription("Payments reversed"),
		metric.WithUnit("{payment}"),
	)
	loansOverdue, _ := meter.Int64Counter("ledger.loans.overdue",
		metric.WithDescription("Loans moved to OVERDUE by the sweep"),
		metric.WithUnit("{loan}"),
	)

	return ledgerMetrics{
		loansOriginated:  loansOriginated,
		paymentsPosted:   paymentsPosted,
		paymentsReversed: paymentsReversed,
		loansOverdue:     loansOverdue,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// asBusinessError leaves classified errors alone and reports anything else as a storage failure
func asBusinessError(err error) error {
	if err == nil {
		return nil
	}

	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

// lookupError maps a missing row to the entity's NotFound error
func lookupError(err error, notFound func(string) *customError.BusinessError, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(id.String())
	}
	return customError.WrapDatabaseError(err)
}
