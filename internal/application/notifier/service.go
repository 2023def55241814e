package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/barterhub/barterhub/internal/domain/notification"
	"github.com/barterhub/barterhub/internal/domain/trade"
	"github.com/barterhub/barterhub/internal/domain/user"
	"github.com/barterhub/barterhub/internal/infrastructure/email"
)

// Service fans trade events out to SSE subscribers and email. Every failure
// is logged and swallowed: notification delivery must never affect the
// transition that triggered it.
type Service struct {
	userRepo user.Repository
	sseHub   notification.SSEHub
	sender   email.Sender
	logger   zerolog.Logger
}

func NewService(userRepo user.Repository, sseHub notification.SSEHub, sender email.Sender, logger zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		sseHub:   sseHub,
		sender:   sender,
		logger:   logger.With().Str("service", "notifier").Logger(),
	}
}

var emailTemplateByEvent = map[string]string{
	notification.EventTradeAccepted:  email.TemplateTradeAccepted,
	notification.EventTradeRefused:   email.TemplateTradeRefused,
	notification.EventTradeCompleted: email.TemplateTradeCompleted,
}

// TradeEvent notifies both participants of a trade transition. Transitions
// with an email template additionally mail the counter-party of the actor.
func (s *Service) TradeEvent(ctx context.Context, event string, t *trade.Trade, actor uuid.UUID) {
	payload, err := json.Marshal(map[string]interface{}{
		"tradeId":   t.TradeID.String(),
		"status":    t.Status,
		"actor":     actor.String(),
		"updatedAt": t.UpdatedAt.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal trade event")
		return
	}
	msg := notification.NewSSEMessage(event, payload)
	s.sseHub.BroadcastToUser(t.ProposerID.String(), msg)
	s.sseHub.BroadcastToUser(t.ReceiverID.String(), msg)

	tmpl, ok := emailTemplateByEvent[event]
	if !ok {
		return
	}
	s.sendEmail(ctx, tmpl, t, actor)
}

// MessagePosted notifies the counter-party of a new chat message.
func (s *Service) MessagePosted(_ context.Context, t *trade.Trade, m *trade.Message) {
	payload, err := json.Marshal(map[string]interface{}{
		"tradeId":   t.TradeID.String(),
		"messageId": m.MessageID.String(),
		"authorId":  m.AuthorID.String(),
		"sentAt":    m.SentAt.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal message event")
		return
	}
	msg := notification.NewSSEMessage(notification.EventTradeMessage, payload)
	s.sseHub.BroadcastToUser(t.OtherParticipant(m.AuthorID).String(), msg)
}

func (s *Service) sendEmail(ctx context.Context, tmpl string, t *trade.Trade, actor uuid.UUID) {
	recipientID := t.OtherParticipant(actor)
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil || recipient == nil {
		s.logger.Warn().Err(err).Str("user_id", recipientID.String()).Msg("failed to load email recipient")
		return
	}
	actorUser, err := s.userRepo.GetByID(ctx, actor)
	counterParty := "the counter-party"
	if err == nil && actorUser != nil {
		counterParty = actorUser.Username
	}
	subject, body, err := email.Render(tmpl, email.TemplateData{
		Name:         recipient.Username,
		CounterParty: counterParty,
		TradeID:      t.TradeID.String(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("template", tmpl).Msg("failed to render email")
		return
	}
	if err := s.sender.Send(ctx, []string{recipient.Email}, subject, body); err != nil {
		s.logger.Warn().Err(err).Str("template", tmpl).Msg("failed to send email")
	}
}
