package service

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/repository"
)

// CatalogService manages the reference data loans are built from: clients,
// collateral items and rate plans. Its deletes refuse to orphan loans.
type CatalogService struct {
	store  repository.Store
	log    *zap.Logger
	now    Clock
	tracer trace.Tracer
}

func NewCatalogService(store repository.Store, log *zap.Logger, clock Clock) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock
	}

	return &CatalogService{
		store:  store,
		log:    log,
		now:    clock,
		tracer: tracer(),
	}
}
