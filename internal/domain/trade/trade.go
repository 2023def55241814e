package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents trade status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProposed  Status = "PROPOSED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRefused   Status = "REFUSED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusRefused || s == StatusCancelled || s == StatusCompleted
}

// MaxMessageLen bounds free-text messages on trades and in the trade chat.
const MaxMessageLen = 1000

// Carrier represents a supported delivery carrier.
type Carrier string

const (
	CarrierColissimo   Carrier = "COLISSIMO"
	CarrierChronopost  Carrier = "CHRONOPOST"
	CarrierPickupPoint Carrier = "PICKUP_POINT"
)

// ValidateCarrier checks a carrier value.
func ValidateCarrier(c Carrier) error {
	switch c {
	case CarrierColissimo, CarrierChronopost, CarrierPickupPoint:
		return nil
	}
	return Validationf("carrier must be one of COLISSIMO, CHRONOPOST, PICKUP_POINT")
}

// Address is a postal address attached to a delivery.
type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// Validate checks required address fields.
func (a Address) Validate() error {
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Line1) == "" ||
		strings.TrimSpace(a.PostalCode) == "" || strings.TrimSpace(a.City) == "" {
		return Validationf("address requires fullName, line1, postalCode and city")
	}
	return nil
}

// Delivery is the hand-off sub-record attached once a trade is accepted.
type Delivery struct {
	Carrier          Carrier   `json:"carrier"`
	SenderAddress    Address   `json:"senderAddress"`
	RecipientAddress Address   `json:"recipientAddress"`
	TrackingStatus   string    `json:"trackingStatus"`
	ConfiguredBy     uuid.UUID `json:"configuredBy"`
	ConfiguredAt     time.Time `json:"configuredAt"`
}

// Message is one entry of the trade-scoped chat ledger. Immutable once appended.
type Message struct {
	ID        int64     `json:"id"`
	MessageID uuid.UUID `json:"messageId"`
	TradeID   uuid.UUID `json:"tradeId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// Trade is the aggregate for one barter negotiation between two parties.
type Trade struct {
	ID               int64       `json:"id"`
	TradeID          uuid.UUID   `json:"tradeId"`
	ProposerID       uuid.UUID   `json:"proposerId"`
	ReceiverID       uuid.UUID   `json:"receiverId"`
	ProposedObjects  []uuid.UUID `json:"proposedObjects"`
	RequestedObjects []uuid.UUID `json:"requestedObjects"`
	Message          string      `json:"message,omitempty"`
	Status           Status      `json:"status"`
	LastOfferBy      uuid.UUID   `json:"lastOfferBy"`
	Delivery         *Delivery   `json:"delivery,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	AcceptedAt       *time.Time  `json:"acceptedAt,omitempty"`
	RefusedAt        *time.Time  `json:"refusedAt,omitempty"`
	CancelledAt      *time.Time  `json:"cancelledAt,omitempty"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

// New builds a pending trade from a proposal. Ownership and availability of the
// referenced objects are checked by the caller against the object ledger.
func New(proposer, receiver uuid.UUID, proposed, requested []uuid.UUID, message string, now time.Time) (*Trade, error) {
	if proposer == receiver {
		return nil, Validationf("cannot open a trade with yourself")
	}
	if len(proposed) == 0 {
		return nil, Validationf("at least one object must be offered")
	}
	if len(requested) == 0 {
		return nil, Validationf("at least one object must be requested")
	}
	if err := validateObjectSets(proposed, requested); err != nil {
		return nil, err
	}
	if len(message) > MaxMessageLen {
		return nil, Validationf("message exceeds %d characters", MaxMessageLen)
	}
	return &Trade{
		TradeID:          uuid.New(),
		ProposerID:       proposer,
		ReceiverID:       receiver,
		ProposedObjects:  proposed,
		RequestedObjects: requested,
		Message:          message,
		Status:           StatusPending,
		LastOfferBy:      proposer,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsParticipant reports whether the actor is a party to this trade.
func (t *Trade) IsParticipant(actor uuid.UUID) bool {
	return actor == t.ProposerID || actor == t.ReceiverID
}

// OtherParticipant returns the counter-party of the given participant.
func (t *Trade) OtherParticipant(actor uuid.UUID) uuid.UUID {
	if actor == t.ProposerID {
		return t.ReceiverID
	}
	return t.ProposerID
}

// SideObjects returns the object set contributed by the given participant.
func (t *Trade) SideObjects(actor uuid.UUID) []uuid.UUID {
	if actor == t.ProposerID {
		return t.ProposedObjects
	}
	return t.RequestedObjects
}

// AllObjects returns the union of both sides, proposed side first.
func (t *Trade) AllObjects() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(t.ProposedObjects)+len(t.RequestedObjects))
	out = append(out, t.ProposedObjects...)
	out = append(out, t.RequestedObjects...)
	return out
}

// CanTransitionTo validates a status transition. Terminal states are absorbing.
func (t *Trade) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusPending, StatusProposed, StatusAccepted, StatusRefused, StatusCancelled},
		StatusProposed:  {StatusPending, StatusProposed, StatusAccepted, StatusRefused, StatusCancelled},
		StatusAccepted:  {StatusCompleted},
		StatusRefused:   {},
		StatusCancelled: {},
		StatusCompleted: {},
	}
	for _, s := range transitions[t.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CounterOffer replaces the acting participant's side of the trade with a new
// object set. Only the participant who did not make the last offer may counter.
func (t *Trade) CounterOffer(actor uuid.UUID, objects []uuid.UUID, now time.Time) error {
	if err := t.guard(actor, StatusProposed); err != nil {
		return err
	}
	if actor == t.LastOfferBy {
		return Forbiddenf("waiting for the counter-party to respond to your offer")
	}
	if len(objects) == 0 {
		return Validationf("a counter-proposal must offer at least one object")
	}
	var proposed, requested []uuid.UUID
	if actor == t.ProposerID {
		proposed, requested = objects, t.RequestedObjects
	} else {
		proposed, requested = t.ProposedObjects, objects
	}
	if err := validateObjectSets(proposed, requested); err != nil {
		return err
	}
	t.ProposedObjects = proposed
	t.RequestedObjects = requested
	t.Status = StatusProposed
	t.LastOfferBy = actor
	t.UpdatedAt = now
	return nil
}

// AskDifferent rejects the current offer without closing the trade. The asking
// participant becomes the last mover, so the counter-party makes the next offer.
func (t *Trade) AskDifferent(actor uuid.UUID, now time.Time) error {
	if err := t.guard(actor, StatusPending); err != nil {
		return err
	}
	t.Status = StatusPending
	t.LastOfferBy = actor
	t.UpdatedAt = now
	return nil
}

// Accept moves the trade to accepted. Only the participant who did not make
// the last offer may accept it.
func (t *Trade) Accept(actor uuid.UUID, now time.Time) error {
	if err := t.guard(actor, StatusAccepted); err != nil {
		return err
	}
	if actor == t.LastOfferBy {
		return Forbiddenf("cannot accept your own offer")
	}
	t.Status = StatusAccepted
	t.AcceptedAt = &now
	t.UpdatedAt = now
	return nil
}

// Refuse closes the trade as refused. Either participant may refuse.
func (t *Trade) Refuse(actor uuid.UUID, now time.Time) error {
	if err := t.guard(actor, StatusRefused); err != nil {
		return err
	}
	t.Status = StatusRefused
	t.RefusedAt = &now
	t.UpdatedAt = now
	return nil
}

// Cancel withdraws the trade. Only the proposer may cancel.
func (t *Trade) Cancel(actor uuid.UUID, now time.Time) error {
	if !t.IsParticipant(actor) {
		return Forbiddenf("not a participant of this trade")
	}
	if actor != t.ProposerID {
		return Forbiddenf("only the proposer may cancel a trade")
	}
	if !t.CanTransitionTo(StatusCancelled) {
		return t.transitionConflict(StatusCancelled)
	}
	t.Status = StatusCancelled
	t.CancelledAt = &now
	t.UpdatedAt = now
	return nil
}

// AttachDelivery records the delivery hand-off. Permitted only while accepted;
// it enriches the aggregate without changing status.
func (t *Trade) AttachDelivery(actor uuid.UUID, d Delivery, now time.Time) error {
	if !t.IsParticipant(actor) {
		return Forbiddenf("not a participant of this trade")
	}
	if t.Status != StatusAccepted {
		return Conflictf("delivery can only be configured on an accepted trade")
	}
	if err := ValidateCarrier(d.Carrier); err != nil {
		return err
	}
	if err := d.SenderAddress.Validate(); err != nil {
		return err
	}
	if err := d.RecipientAddress.Validate(); err != nil {
		return err
	}
	d.ConfiguredBy = actor
	d.ConfiguredAt = now
	if d.TrackingStatus == "" {
		d.TrackingStatus = "pending"
	}
	t.Delivery = &d
	t.UpdatedAt = now
	return nil
}

// Complete finishes an accepted trade. Either participant may complete.
func (t *Trade) Complete(actor uuid.UUID, now time.Time) error {
	if err := t.guard(actor, StatusCompleted); err != nil {
		return err
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

func (t *Trade) guard(actor uuid.UUID, target Status) error {
	if !t.IsParticipant(actor) {
		return Forbiddenf("not a participant of this trade")
	}
	if !t.CanTransitionTo(target) {
		return t.transitionConflict(target)
	}
	return nil
}

func (t *Trade) transitionConflict(target Status) error {
	if t.Status.IsTerminal() {
		return Conflictf("trade is already %s", strings.ToLower(string(t.Status)))
	}
	return Conflictf("cannot move a %s trade to %s", strings.ToLower(string(t.Status)), strings.ToLower(string(target)))
}

// NewChatMessage builds a chat ledger entry after validating author and content.
func (t *Trade) NewChatMessage(author uuid.UUID, content string, now time.Time) (*Message, error) {
	if !t.IsParticipant(author) {
		return nil, Forbiddenf("not a participant of this trade")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Validationf("message content is required")
	}
	if len(content) > MaxMessageLen {
		return nil, Validationf("message exceeds %d characters", MaxMessageLen)
	}
	return &Message{
		MessageID: uuid.New(),
		TradeID:   t.TradeID,
		AuthorID:  author,
		Content:   content,
		SentAt:    now,
	}, nil
}

func validateObjectSets(proposed, requested []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(proposed)+len(requested))
	for _, id := range proposed {
		if _, dup := seen[id]; dup {
			return Validationf("object %s referenced more than once", id)
		}
		seen[id] = struct{}{}
	}
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			return Validationf("object %s cannot appear on both sides of a trade", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
