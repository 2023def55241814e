package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/barterhub/barterhub/internal/domain/object"
	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

// fakeTradeRepo is an in-memory trade store with real compare-and-swap
// semantics: loads return copies, UpdateIfStatus only writes when the stored
// status matches the expected one.
type fakeTradeRepo struct {
	mu     sync.Mutex
	trades map[uuid.UUID]*domainTrade.Trade
	preCAS func()
}

func newFakeTradeRepo() *fakeTradeRepo {
	return &fakeTradeRepo{trades: make(map[uuid.UUID]*domainTrade.Trade)}
}

func cloneTrade(t *domainTrade.Trade) *domainTrade.Trade {
	c := *t
	c.ProposedObjects = append([]uuid.UUID(nil), t.ProposedObjects...)
	c.RequestedObjects = append([]uuid.UUID(nil), t.RequestedObjects...)
	if t.Delivery != nil {
		d := *t.Delivery
		c.Delivery = &d
	}
	return &c
}

func (r *fakeTradeRepo) Create(_ context.Context, t *domainTrade.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[t.TradeID] = cloneTrade(t)
	return nil
}

func (r *fakeTradeRepo) GetByID(_ context.Context, id uuid.UUID) (*domainTrade.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok {
		return nil, nil
	}
	return cloneTrade(t), nil
}

func (r *fakeTradeRepo) List(_ context.Context, filter domainTrade.Filter, limit, offset int) ([]*domainTrade.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainTrade.Trade
	for _, t := range r.trades {
		if !t.IsParticipant(filter.Participant) {
			continue
		}
		if filter.Role != nil {
			if *filter.Role == domainTrade.RoleSent && t.ProposerID != filter.Participant {
				continue
			}
			if *filter.Role == domainTrade.RoleReceived && t.ReceiverID != filter.Participant {
				continue
			}
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, cloneTrade(t))
	}
	return out, nil
}

func (r *fakeTradeRepo) CountActiveByProposer(_ context.Context, proposerID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.trades {
		if t.ProposerID == proposerID && !t.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

func (r *fakeTradeRepo) ListStaleActive(_ context.Context, before time.Time, limit int) ([]*domainTrade.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainTrade.Trade
	for _, t := range r.trades {
		if !t.Status.IsTerminal() && t.Status != domainTrade.StatusAccepted && t.UpdatedAt.Before(before) {
			out = append(out, cloneTrade(t))
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTradeRepo) UpdateIfStatus(_ context.Context, t *domainTrade.Trade, expected domainTrade.Status) error {
	if r.preCAS != nil {
		hook := r.preCAS
		r.preCAS = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trades[t.TradeID]
	if !ok {
		return domainTrade.NotFoundf("trade not found: %s", t.TradeID)
	}
	if stored.Status != expected {
		return domainTrade.ErrStatusChanged
	}
	r.trades[t.TradeID] = cloneTrade(t)
	return nil
}

// fakeLedger backs both the object repository and the availability guard.
type fakeLedger struct {
	mu      sync.Mutex
	objects map[uuid.UUID]*object.Object
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{objects: make(map[uuid.UUID]*object.Object)}
}

func (l *fakeLedger) add(owner uuid.UUID) uuid.UUID {
	o := &object.Object{ObjectID: uuid.New(), OwnerID: owner, Title: "thing", Status: object.StatusAvailable}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects[o.ObjectID] = o
	return o.ObjectID
}

func (l *fakeLedger) status(id uuid.UUID) object.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.objects[id].Status
}

func (l *fakeLedger) Create(_ context.Context, o *object.Object) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects[o.ObjectID] = o
	return nil
}

func (l *fakeLedger) GetByID(_ context.Context, id uuid.UUID) (*object.Object, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.objects[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (l *fakeLedger) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*object.Object, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*object.Object
	for _, id := range ids {
		if o, ok := l.objects[id]; ok {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListByOwner(_ context.Context, owner uuid.UUID, limit, offset int) ([]*object.Object, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*object.Object
	for _, o := range l.objects {
		if o.OwnerID == owner {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (l *fakeLedger) Lock(_ context.Context, ids []uuid.UUID, tradeID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		o, ok := l.objects[id]
		if !ok {
			return object.ErrNotAvailable
		}
		if !o.IsAvailable() && !o.IsHeldBy(tradeID) {
			return object.ErrNotAvailable
		}
	}
	for _, id := range ids {
		o := l.objects[id]
		tid := tradeID
		o.Status = object.StatusLocked
		o.LockedBy = &tid
	}
	return nil
}

func (l *fakeLedger) Release(_ context.Context, ids []uuid.UUID, tradeID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		o, ok := l.objects[id]
		if ok && o.IsHeldBy(tradeID) {
			o.Status = object.StatusAvailable
			o.LockedBy = nil
		}
	}
	return nil
}

func (l *fakeLedger) Finalize(_ context.Context, ids []uuid.UUID, tradeID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		o, ok := l.objects[id]
		if !ok || !o.IsHeldBy(tradeID) {
			return object.ErrNotLocked
		}
	}
	for _, id := range ids {
		o := l.objects[id]
		o.Status = object.StatusTraded
		o.LockedBy = nil
	}
	return nil
}

type stubQuota struct{ err error }

func (q stubQuota) CanCreateTrade(context.Context, uuid.UUID) error { return q.err }

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) TradeEvent(_ context.Context, event string, _ *domainTrade.Trade, _ uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fixture struct {
	svc      *Service
	repo     *fakeTradeRepo
	ledger   *fakeLedger
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeTradeRepo()
	ledger := newFakeLedger()
	notifier := &recordingNotifier{}
	svc := NewService(repo, ledger, ledger, stubQuota{}, notifier, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, ledger: ledger, notifier: notifier}
}

func (f *fixture) propose(t *testing.T, proposer uuid.UUID, proposed, requested []uuid.UUID) *domainTrade.Trade {
	t.Helper()
	tr, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       proposer,
		ProposedObjects:  proposed,
		RequestedObjects: requested,
		Message:          "interested?",
	})
	require.NoError(t, err)
	return tr
}

func TestProposeCreatesPendingTrade(t *testing.T) {
	f := newFixture(t)
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})
	require.Equal(t, domainTrade.StatusPending, tr.Status)
	require.Equal(t, u2, tr.ReceiverID, "receiver must be derived from the requested object owner")
	require.Equal(t, object.StatusAvailable, f.ledger.status(objA), "propose must not lock")
}

func TestProposeSelfReferenceRejected(t *testing.T) {
	f := newFixture(t)
	u1 := uuid.New()
	objA := f.ledger.add(u1)

	_, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{objA},
		RequestedObjects: []uuid.UUID{objA},
	})
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
	trades, err := f.repo.List(context.Background(), domainTrade.Filter{Participant: u1}, 10, 0)
	require.NoError(t, err)
	require.Empty(t, trades, "no trade may be created on validation failure")
}

func TestProposeAgainstOwnObjectRejected(t *testing.T) {
	f := newFixture(t)
	u1 := uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u1)

	_, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{objA},
		RequestedObjects: []uuid.UUID{objB},
	})
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
}

func TestProposeUnknownObject(t *testing.T) {
	f := newFixture(t)
	u1, u2 := uuid.New(), uuid.New()
	objB := f.ledger.add(u2)

	_, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{uuid.New()},
		RequestedObjects: []uuid.UUID{objB},
	})
	require.Equal(t, domainTrade.KindNotFound, domainTrade.KindOf(err))
}

func TestProposeNotOwnedObject(t *testing.T) {
	f := newFixture(t)
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	objC := f.ledger.add(u3)
	objB := f.ledger.add(u2)

	_, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{objC},
		RequestedObjects: []uuid.UUID{objB},
	})
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
}

func TestProposeRequestedFromTwoOwnersRejected(t *testing.T) {
	f := newFixture(t)
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)
	objC := f.ledger.add(u3)

	_, err := f.svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{objA},
		RequestedObjects: []uuid.UUID{objB, objC},
	})
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
}

func TestProposeQuotaExceeded(t *testing.T) {
	repo := newFakeTradeRepo()
	ledger := newFakeLedger()
	svc := NewService(repo, ledger, ledger, stubQuota{err: domainTrade.QuotaExceededf("plan limit reached")}, &recordingNotifier{}, zerolog.Nop())

	u1, u2 := uuid.New(), uuid.New()
	objA := ledger.add(u1)
	objB := ledger.add(u2)
	_, err := svc.Propose(context.Background(), ProposeInput{
		ProposerID:       u1,
		ProposedObjects:  []uuid.UUID{objA},
		RequestedObjects: []uuid.UUID{objB},
	})
	require.Equal(t, domainTrade.KindQuotaExceeded, domainTrade.KindOf(err))
}

// Scenario: propose, accept, complete. Objects go available -> locked -> traded.
func TestFullExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	accepted, err := f.svc.Accept(ctx, tr.TradeID, u2)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	require.Equal(t, object.StatusLocked, f.ledger.status(objA))
	require.Equal(t, object.StatusLocked, f.ledger.status(objB))

	completed, err := f.svc.Complete(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.Equal(t, object.StatusTraded, f.ledger.status(objA))
	require.Equal(t, object.StatusTraded, f.ledger.status(objB))
}

// Scenario: counter-proposal ping-pong with an ask-different reset.
func TestCounterProposalRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)
	objC := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	countered, err := f.svc.CounterPropose(ctx, tr.TradeID, u2, []uuid.UUID{objC})
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusProposed, countered.Status)
	require.Equal(t, []uuid.UUID{objC}, countered.RequestedObjects)

	reset, err := f.svc.AskDifferent(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusPending, reset.Status)

	countered, err = f.svc.CounterPropose(ctx, tr.TradeID, u2, []uuid.UUID{objB})
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusProposed, countered.Status)

	accepted, err := f.svc.Accept(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusAccepted, accepted.Status)
}

// Scenario: refuse releases everything and the trade becomes absorbing.
func TestRefuseReleasesObjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	refused, err := f.svc.Refuse(ctx, tr.TradeID, u2)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusRefused, refused.Status)
	require.Equal(t, object.StatusAvailable, f.ledger.status(objA))
	require.Equal(t, object.StatusAvailable, f.ledger.status(objB))

	_, err = f.svc.Accept(ctx, tr.TradeID, u2)
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
	_, err = f.svc.Cancel(ctx, tr.TradeID, u1)
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
}

func TestRefuseAfterAcceptLostReleasesLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	// A racing refuse wins the compare-and-swap between our lock acquisition
	// and our status write.
	f.repo.preCAS = func() {
		f.repo.mu.Lock()
		stored := f.repo.trades[tr.TradeID]
		now := time.Now().UTC()
		stored.Status = domainTrade.StatusRefused
		stored.RefusedAt = &now
		f.repo.mu.Unlock()
	}
	_, err := f.svc.Accept(ctx, tr.TradeID, u2)
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
	require.Equal(t, object.StatusAvailable, f.ledger.status(objA), "lost accept must roll its lock back")
	require.Equal(t, object.StatusAvailable, f.ledger.status(objB))
}

// Property: no object is held by two non-terminal trades.
func TestNoDoubleLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)
	objC := f.ledger.add(u3)

	first := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})
	second := f.propose(t, u3, []uuid.UUID{objC}, []uuid.UUID{objB})

	_, err := f.svc.Accept(ctx, first.TradeID, u2)
	require.NoError(t, err)

	// objB is now locked by the first trade; the second cannot be accepted.
	_, err = f.svc.Accept(ctx, second.TradeID, u2)
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))

	// And a fresh proposal referencing objB is rejected up front.
	objD := f.ledger.add(u3)
	_, err = f.svc.Propose(ctx, ProposeInput{
		ProposerID:       u3,
		ProposedObjects:  []uuid.UUID{objD},
		RequestedObjects: []uuid.UUID{objB},
	})
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
}

// Property: two racing accepts, exactly one wins.
func TestConcurrentAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(ctx, tr.TradeID, u2)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case domainTrade.KindOf(err) == domainTrade.KindConflict:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one accept must win")
	require.Equal(t, 1, conflict, "the loser must observe a conflict")

	got, err := f.svc.Get(ctx, tr.TradeID, u2)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusAccepted, got.Status)
	require.Equal(t, object.StatusLocked, f.ledger.status(objA))
}

// Property: complete flips objects exactly once.
func TestDoubleCompleteConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})
	_, err := f.svc.Accept(ctx, tr.TradeID, u2)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, tr.TradeID, u2)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, tr.TradeID, u1)
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
	require.Equal(t, object.StatusTraded, f.ledger.status(objA), "objects must stay traded")
}

// Property: non-participants never mutate state.
func TestNonParticipantForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	stranger := uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	for name, call := range map[string]func() error{
		"accept":       func() error { _, err := f.svc.Accept(ctx, tr.TradeID, stranger); return err },
		"refuse":       func() error { _, err := f.svc.Refuse(ctx, tr.TradeID, stranger); return err },
		"cancel":       func() error { _, err := f.svc.Cancel(ctx, tr.TradeID, stranger); return err },
		"askDifferent": func() error { _, err := f.svc.AskDifferent(ctx, tr.TradeID, stranger); return err },
		"get":          func() error { _, err := f.svc.Get(ctx, tr.TradeID, stranger); return err },
	} {
		err := call()
		require.Equalf(t, domainTrade.KindForbidden, domainTrade.KindOf(err), "%s by stranger", name)
	}

	got, err := f.svc.Get(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusPending, got.Status)
}

func TestCounterProposeValidatesOwnershipAndAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)
	objOther := f.ledger.add(u3)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	_, err := f.svc.CounterPropose(ctx, tr.TradeID, u2, []uuid.UUID{objOther})
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))

	_, err = f.svc.CounterPropose(ctx, tr.TradeID, u2, []uuid.UUID{uuid.New()})
	require.Equal(t, domainTrade.KindNotFound, domainTrade.KindOf(err))
}

func TestCancelledTradeNotifiesAndUnwindsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})
	cancelled, err := f.svc.Cancel(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, object.StatusAvailable, f.ledger.status(objA))
}

func TestListByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)
	f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	sent := domainTrade.RoleSent
	trades, err := f.svc.List(ctx, u1, &sent, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	received := domainTrade.RoleReceived
	trades, err = f.svc.List(ctx, u1, &received, nil, 10, 0)
	require.NoError(t, err)
	require.Empty(t, trades)

	bogus := domainTrade.Role("starred")
	_, err = f.svc.List(ctx, u1, &bogus, nil, 10, 0)
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
}

func TestSweepStaleCancelsOldTrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	objA := f.ledger.add(u1)
	objB := f.ledger.add(u2)

	tr := f.propose(t, u1, []uuid.UUID{objA}, []uuid.UUID{objB})

	// Age the stored trade past the cutoff.
	f.repo.mu.Lock()
	f.repo.trades[tr.TradeID].UpdatedAt = time.Now().UTC().Add(-48 * time.Hour)
	f.repo.mu.Unlock()

	swept, err := f.svc.SweepStale(ctx, 24*time.Hour, 50)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	got, err := f.svc.Get(ctx, tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, domainTrade.StatusCancelled, got.Status)
}
