package message

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

// Notifier dispatches the fire-and-forget message event.
type Notifier interface {
	MessagePosted(ctx context.Context, t *domainTrade.Trade, m *domainTrade.Message)
}

// Service is the trade-scoped chat ledger. It is independent of trade
// status: participants may message each other at any point, including after
// completion.
type Service struct {
	tradeRepo domainTrade.Repository
	msgRepo   domainTrade.MessageRepository
	notifier  Notifier
	logger    zerolog.Logger
}

func NewService(tradeRepo domainTrade.Repository, msgRepo domainTrade.MessageRepository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		tradeRepo: tradeRepo,
		msgRepo:   msgRepo,
		notifier:  notifier,
		logger:    logger.With().Str("service", "message").Logger(),
	}
}

// Append adds a message to the trade's ledger.
func (s *Service) Append(ctx context.Context, tradeID, authorID uuid.UUID, content string) (*domainTrade.Message, error) {
	t, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domainTrade.NotFoundf("trade not found: %s", tradeID)
	}
	m, err := t.NewChatMessage(authorID, content, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.msgRepo.Append(ctx, m); err != nil {
		return nil, err
	}
	s.notifier.MessagePosted(ctx, t, m)
	return m, nil
}

// ListByTrade returns the ledger in append order, participants only.
func (s *Service) ListByTrade(ctx context.Context, tradeID, requesterID uuid.UUID, limit, offset int) ([]*domainTrade.Message, error) {
	t, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domainTrade.NotFoundf("trade not found: %s", tradeID)
	}
	if !t.IsParticipant(requesterID) {
		return nil, domainTrade.Forbiddenf("not a participant of this trade")
	}
	return s.msgRepo.ListByTrade(ctx, tradeID, limit, offset)
}
