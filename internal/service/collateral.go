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

// RegisterGuarantee adds an unpledged collateral item
func (s *CatalogService) RegisterGuarantee(ctx context.Context, request *domain.CreateGuaranteeRequest) (guarantee *domain.Guarantee, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.RegisterGuarantee")
	defer func() { endSpan(span, err) }()

	if request.DeclaredValue.IsNegative() {
		return nil, customError.NewBusinessError(customError.KindInvalidInput, "INVALID_DECLARED_VALUE",
			"Declared value must not be negative", nil)
	}

	now := s.now()
	guarantee = &domain.Guarantee{
		ID:            uuid.New(),
		Name:          request.Name,
		Description:   request.Description,
		DeclaredValue: request.DeclaredValue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.store.Repositories().Guarantees.Create(ctx, guarantee); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.Info("Guarantee registered", zap.String("guarantee_id", guarantee.ID.String()))
	return guarantee, nil
}

func (s *CatalogService) GetGuarantee(ctx context.Context, guaranteeID uuid.UUID) (*domain.Guarantee, error) {
	guarantee, err := s.store.Repositories().Guarantees.GetByID(ctx, guaranteeID)
	if err != nil {
		return nil, lookupError(err, customError.WrapGuaranteeNotFound, guaranteeID)
	}
	return guarantee, nil
}

// IsGuaranteeAvailable reports whether the item can back a new loan
func (s *CatalogService) IsGuaranteeAvailable(ctx context.Context, guaranteeID uuid.UUID) (bool, error) {
	repos := s.store.Repositories()

	guarantee, err := repos.Guarantees.GetByID(ctx, guaranteeID)
	if err != nil {
		return false, lookupError(err, customError.WrapGuaranteeNotFound, guaranteeID)
	}
	if !guarantee.IsAvailable() {
		return false, nil
	}

	holders, err := repos.Loans.CountByGuarantee(ctx, guaranteeID, domain.OutstandingStatuses...)
	if err != nil {
		return false, customError.WrapDatabaseError(err)
	}
	return holders == 0, nil
}

// DeleteGuarantee removes an item no loan has ever referenced
func (s *CatalogService) DeleteGuarantee(ctx context.Context, guaranteeID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteGuarantee", trace.WithAttributes(
		attribute.String("guarantee.id", guaranteeID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Guarantees.GetByIDForUpdate(ctx, guaranteeID); err != nil {
			return lookupError(err, customError.WrapGuaranteeNotFound, guaranteeID)
		}

		loans, err := repos.Loans.CountByGuarantee(ctx, guaranteeID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if loans > 0 {
			return customError.WrapGuaranteeInUse(guaranteeID.String())
		}

		if err := repos.Guarantees.Delete(ctx, guaranteeID); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return customError.WrapGuaranteeInUse(guaranteeID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return asBusinessError(err)
	}

	s.log.Info("Guarantee deleted", zap.String("guarantee_id", guaranteeID.String()))
	return nil
}
