package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/internal/repository"
	customError "github.com/segyhp/collateral-ledger/pkg/errors"
)

func (s *CatalogService) RegisterClient(ctx context.Context, request *domain.CreateClientRequest) (client *domain.Client, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.RegisterClient")
	defer func() { endSpan(span, err) }()

	now := s.now()
	client = &domain.Client{
		ID:             uuid.New(),
		FullName:       request.FullName,
		DocumentNumber: request.DocumentNumber,
		Phone:          request.Phone,
		Address:        request.Address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err = s.store.Repositories().Clients.Create(ctx, client); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, customError.WrapDuplicateClient(request.DocumentNumber)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.Info("Client registered", zap.String("client_id", client.ID.String()))
	return client, nil
}

func (s *CatalogService) GetClient(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	client, err := s.store.Repositories().Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, lookupError(err, customError.WrapClientNotFound, clientID)
	}
	return client, nil
}

// DeleteClient removes a client that owns no loans. Outstanding loans are
// reported first; settled ones still protect the loan history.
func (s *CatalogService) DeleteClient(ctx context.Context, clientID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteClient", trace.WithAttributes(
		attribute.String("client.id", clientID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Clients.GetByIDForUpdate(ctx, clientID); err != nil {
			return lookupError(err, customError.WrapClientNotFound, clientID)
		}

		loans, err := repos.Loans.CountByClient(ctx, clientID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if loans > 0 {
			return customError.WrapClientHasLoans(clientID.String())
		}

		if err := repos.Clients.Delete(ctx, clientID); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return customError.WrapClientHasLoans(clientID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return asBusinessError(err)
	}

	s.log.Info("Client deleted", zap.String("client_id", clientID.String()))
	return nil
}
