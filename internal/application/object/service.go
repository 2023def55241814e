package object

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainObject "github.com/barterhub/barterhub/internal/domain/object"
	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

// Service manages the registered side of the object ledger: creating and
// browsing tradeable items. Availability flips belong to the guard, not here.
type Service struct {
	repo   domainObject.Repository
	logger zerolog.Logger
}

func NewService(repo domainObject.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "object").Logger(),
	}
}

// Register adds an available object owned by the caller.
func (s *Service) Register(ctx context.Context, ownerID uuid.UUID, title string, description, category *string) (*domainObject.Object, error) {
	o, err := domainObject.New(ownerID, title, description, category, time.Now().UTC())
	if err != nil {
		return nil, domainTrade.Validationf("%s", err.Error())
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get returns one object.
func (s *Service) Get(ctx context.Context, objectID uuid.UUID) (*domainObject.Object, error) {
	o, err := s.repo.GetByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domainTrade.NotFoundf("object not found: %s", objectID)
	}
	return o, nil
}

// ListByOwner returns an owner's objects.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domainObject.Object, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}
