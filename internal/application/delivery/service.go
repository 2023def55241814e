package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

// Service is the delivery coordinator. It attaches the hand-off record to an
// accepted trade and tracks carrier state; it never transitions the trade
// itself.
type Service struct {
	tradeRepo domainTrade.Repository
	logger    zerolog.Logger
}

func NewService(tradeRepo domainTrade.Repository, logger zerolog.Logger) *Service {
	return &Service{
		tradeRepo: tradeRepo,
		logger:    logger.With().Str("service", "delivery").Logger(),
	}
}

// ConfigureInput attaches a delivery to an accepted trade.
type ConfigureInput struct {
	Carrier          domainTrade.Carrier
	SenderAddress    domainTrade.Address
	RecipientAddress domainTrade.Address
}

// Configure records carrier and addresses on an accepted trade. The write
// goes through the status compare-and-swap so it cannot race a completion.
func (s *Service) Configure(ctx context.Context, tradeID, actorID uuid.UUID, in ConfigureInput) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	d := domainTrade.Delivery{
		Carrier:          in.Carrier,
		SenderAddress:    in.SenderAddress,
		RecipientAddress: in.RecipientAddress,
	}
	if err := t.AttachDelivery(actorID, d, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	s.logger.Info().Str("trade_id", t.TradeID.String()).Str("carrier", string(in.Carrier)).Msg("delivery configured")
	return t, nil
}

// Tracking returns the current tracking status to a participant.
func (s *Service) Tracking(ctx context.Context, tradeID, requesterID uuid.UUID) (string, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return "", err
	}
	if !t.IsParticipant(requesterID) {
		return "", domainTrade.Forbiddenf("not a participant of this trade")
	}
	if t.Delivery == nil {
		return "", domainTrade.NotFoundf("no delivery configured for trade %s", tradeID)
	}
	return t.Delivery.TrackingStatus, nil
}

// UpdateTracking records a carrier status update pushed by the external
// tracking collaborator. The status is treated as opaque.
func (s *Service) UpdateTracking(ctx context.Context, tradeID uuid.UUID, status string) (*domainTrade.Trade, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, domainTrade.Validationf("tracking status is required")
	}
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.Delivery == nil {
		return nil, domainTrade.NotFoundf("no delivery configured for trade %s", tradeID)
	}
	expected := t.Status
	t.Delivery.TrackingStatus = status
	t.UpdatedAt = time.Now().UTC()
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) load(ctx context.Context, tradeID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domainTrade.NotFoundf("trade not found: %s", tradeID)
	}
	return t, nil
}

func (s *Service) persist(ctx context.Context, t *domainTrade.Trade, expected domainTrade.Status) error {
	if err := s.tradeRepo.UpdateIfStatus(ctx, t, expected); err != nil {
		if errors.Is(err, domainTrade.ErrStatusChanged) {
			return domainTrade.Conflictf("trade was modified concurrently, reload and retry")
		}
		return err
	}
	return nil
}
