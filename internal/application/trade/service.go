package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/barterhub/barterhub/internal/domain/notification"
	"github.com/barterhub/barterhub/internal/domain/object"
	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

// QuotaChecker is the subscription collaborator consulted at propose time.
type QuotaChecker interface {
	CanCreateTrade(ctx context.Context, userID uuid.UUID) error
}

// Notifier dispatches fire-and-forget side effects after transitions.
type Notifier interface {
	TradeEvent(ctx context.Context, event string, t *domainTrade.Trade, actor uuid.UUID)
}

// Service is the negotiation engine. Every operation performs one durable
// read-then-write sequence: validate actor and ownership, evaluate the
// transition, consult the availability guard, then persist through the
// repository's status compare-and-swap.
type Service struct {
	tradeRepo  domainTrade.Repository
	objectRepo object.Repository
	ledger     object.Ledger
	quota      QuotaChecker
	notifier   Notifier
	logger     zerolog.Logger
}

// NewService creates the negotiation engine service.
func NewService(
	tradeRepo domainTrade.Repository,
	objectRepo object.Repository,
	ledger object.Ledger,
	quota QuotaChecker,
	notifier Notifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tradeRepo:  tradeRepo,
		objectRepo: objectRepo,
		ledger:     ledger,
		quota:      quota,
		notifier:   notifier,
		logger:     logger.With().Str("service", "trade").Logger(),
	}
}

// ProposeInput opens a new trade.
type ProposeInput struct {
	ProposerID       uuid.UUID
	ProposedObjects  []uuid.UUID
	RequestedObjects []uuid.UUID
	Message          string
}

// Propose creates a pending trade. The receiver is derived from the owner of
// the requested objects, which must all belong to a single counter-party.
func (s *Service) Propose(ctx context.Context, in ProposeInput) (*domainTrade.Trade, error) {
	if err := s.quota.CanCreateTrade(ctx, in.ProposerID); err != nil {
		return nil, err
	}
	if len(in.ProposedObjects) == 0 || len(in.RequestedObjects) == 0 {
		return nil, domainTrade.Validationf("both sides of a trade need at least one object")
	}
	if err := s.checkSideObjects(ctx, in.ProposedObjects, in.ProposerID, uuid.Nil); err != nil {
		return nil, err
	}
	receiver, err := s.requestedOwner(ctx, in.RequestedObjects)
	if err != nil {
		return nil, err
	}
	t, err := domainTrade.New(in.ProposerID, receiver, in.ProposedObjects, in.RequestedObjects, in.Message, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.tradeRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("trade_id", t.TradeID.String()).Str("proposer", in.ProposerID.String()).Msg("trade proposed")
	s.notifier.TradeEvent(ctx, notification.EventTradeProposed, t, in.ProposerID)
	return t, nil
}

// Get returns a trade to one of its participants.
func (s *Service) Get(ctx context.Context, tradeID, requesterID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(requesterID) {
		return nil, domainTrade.Forbiddenf("not a participant of this trade")
	}
	return t, nil
}

// List returns the trades a participant is involved in.
func (s *Service) List(ctx context.Context, requesterID uuid.UUID, role *domainTrade.Role, status *domainTrade.Status, limit, offset int) ([]*domainTrade.Trade, error) {
	if role != nil && *role != domainTrade.RoleSent && *role != domainTrade.RoleReceived {
		return nil, domainTrade.Validationf("role must be 'sent' or 'received'")
	}
	filter := domainTrade.Filter{Participant: requesterID, Role: role, Status: status}
	return s.tradeRepo.List(ctx, filter, limit, offset)
}

// CounterPropose replaces the acting side's object set with a new offer.
func (s *Service) CounterPropose(ctx context.Context, tradeID, actorID uuid.UUID, objects []uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSideObjects(ctx, objects, actorID, t.TradeID); err != nil {
		return nil, err
	}
	expected := t.Status
	if err := t.CounterOffer(actorID, objects, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	s.notifier.TradeEvent(ctx, notification.EventTradeCountered, t, actorID)
	return t, nil
}

// AskDifferent rejects the current offer and resets the trade for a new one.
func (s *Service) AskDifferent(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	if err := t.AskDifferent(actorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	return t, nil
}

// Accept locks every referenced object for this trade and moves it to
// accepted. The status compare-and-swap decides races: the loser observes a
// conflict and, when the winner closed the trade, the acquired locks are
// released again.
func (s *Service) Accept(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	now := time.Now().UTC()
	if err := t.Accept(actorID, now); err != nil {
		return nil, err
	}
	if err := s.ledger.Lock(ctx, t.AllObjects(), t.TradeID); err != nil {
		if errors.Is(err, object.ErrNotAvailable) {
			return nil, domainTrade.Conflictf("an object of this trade is no longer available")
		}
		return nil, err
	}
	if err := s.tradeRepo.UpdateIfStatus(ctx, t, expected); err != nil {
		if errors.Is(err, domainTrade.ErrStatusChanged) {
			s.rollbackLock(ctx, t)
			return nil, domainTrade.Conflictf("trade was modified concurrently, reload and retry")
		}
		return nil, err
	}
	s.logger.Info().Str("trade_id", t.TradeID.String()).Msg("trade accepted")
	s.notifier.TradeEvent(ctx, notification.EventTradeAccepted, t, actorID)
	return t, nil
}

// Refuse closes the trade and returns any held objects to available.
func (s *Service) Refuse(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	if err := t.Refuse(actorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	s.release(ctx, t)
	s.notifier.TradeEvent(ctx, notification.EventTradeRefused, t, actorID)
	return t, nil
}

// Cancel withdraws the trade; proposer only.
func (s *Service) Cancel(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	if err := t.Cancel(actorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	s.release(ctx, t)
	s.notifier.TradeEvent(ctx, notification.EventTradeCancelled, t, actorID)
	return t, nil
}

// Complete finishes an accepted trade and flips every referenced object to
// traded, exactly once. A second complete call loses the compare-and-swap and
// observes a conflict.
func (s *Service) Complete(ctx context.Context, tradeID, actorID uuid.UUID) (*domainTrade.Trade, error) {
	t, err := s.load(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	expected := t.Status
	if err := t.Complete(actorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, expected); err != nil {
		return nil, err
	}
	if err := s.ledger.Finalize(ctx, t.AllObjects(), t.TradeID); err != nil {
		// The trade is already completed; surface the inconsistency instead
		// of hiding it.
		s.logger.Error().Err(err).Str("trade_id", t.TradeID.String()).Msg("failed to finalize objects")
		return nil, err
	}
	s.logger.Info().Str("trade_id", t.TradeID.String()).Msg("trade completed")
	s.notifier.TradeEvent(ctx, notification.EventTradeCompleted, t, actorID)
	return t, nil
}

// SweepStale cancels pending and proposed trades untouched since the cutoff,
// through the same cancel path a proposer would use.
func (s *Service) SweepStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	before := time.Now().UTC().Add(-olderThan)
	stale, err := s.tradeRepo.ListStaleActive(ctx, before, limit)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, t := range stale {
		if _, err := s.Cancel(ctx, t.TradeID, t.ProposerID); err != nil {
			if domainTrade.KindOf(err) == domainTrade.KindConflict {
				continue
			}
			s.logger.Warn().Err(err).Str("trade_id", t.TradeID.String()).Msg("failed to sweep stale trade")
			continue
		}
		swept++
	}
	return swept, nil
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

// checkSideObjects verifies that every object exists, belongs to the acting
// side, and is available (or already held by this very trade).
func (s *Service) checkSideObjects(ctx context.Context, ids []uuid.UUID, owner uuid.UUID, tradeID uuid.UUID) error {
	objs, err := s.objectRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*object.Object, len(objs))
	for _, o := range objs {
		byID[o.ObjectID] = o
	}
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return domainTrade.NotFoundf("object not found: %s", id)
		}
		if o.OwnerID != owner {
			return domainTrade.Conflictf("object %s does not belong to the offering side", id)
		}
		if !o.IsAvailable() && !o.IsHeldBy(tradeID) {
			return domainTrade.Conflictf("object %s is not available", id)
		}
	}
	return nil
}

// requestedOwner resolves the receiver of a proposal and checks availability
// of the requested side.
func (s *Service) requestedOwner(ctx context.Context, ids []uuid.UUID) (uuid.UUID, error) {
	objs, err := s.objectRepo.GetByIDs(ctx, ids)
	if err != nil {
		return uuid.Nil, err
	}
	byID := make(map[uuid.UUID]*object.Object, len(objs))
	for _, o := range objs {
		byID[o.ObjectID] = o
	}
	owner := uuid.Nil
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return uuid.Nil, domainTrade.NotFoundf("object not found: %s", id)
		}
		if owner == uuid.Nil {
			owner = o.OwnerID
		} else if o.OwnerID != owner {
			return uuid.Nil, domainTrade.Validationf("requested objects must belong to a single owner")
		}
		if !o.IsAvailable() {
			return uuid.Nil, domainTrade.Conflictf("object %s is not available", id)
		}
	}
	return owner, nil
}

// release returns the trade's objects to available after refuse/cancel.
// Failures are logged: the transition already happened and must stand.
func (s *Service) release(ctx context.Context, t *domainTrade.Trade) {
	if err := s.ledger.Release(ctx, t.AllObjects(), t.TradeID); err != nil {
		s.logger.Error().Err(err).Str("trade_id", t.TradeID.String()).Msg("failed to release objects")
	}
}

// rollbackLock undoes a lock acquired by an accept that lost the status race
// to a closing transition.
func (s *Service) rollbackLock(ctx context.Context, t *domainTrade.Trade) {
	latest, err := s.tradeRepo.GetByID(ctx, t.TradeID)
	if err != nil || latest == nil {
		s.logger.Error().Err(err).Str("trade_id", t.TradeID.String()).Msg("failed to reload trade after lost accept race")
		return
	}
	if latest.Status.IsTerminal() && latest.Status != domainTrade.StatusCompleted {
		s.release(ctx, t)
	}
}
