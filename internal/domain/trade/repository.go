package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStatusChanged is returned by UpdateIfStatus when the stored status no
// longer matches the expected one, meaning another transition won the race.
var ErrStatusChanged = errors.New("trade status changed concurrently")

// Role filters a trade listing by the requester's side.
type Role string

const (
	RoleSent     Role = "sent"
	RoleReceived Role = "received"
)

// Filter controls trade listing.
type Filter struct {
	Participant uuid.UUID
	Role        *Role
	Status      *Status
}

// Repository defines persistence for trades. UpdateIfStatus is the
// compare-and-swap that anchors all transition concurrency: the first writer
// whose expected status matches wins, later writers get ErrStatusChanged.
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByID(ctx context.Context, tradeID uuid.UUID) (*Trade, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Trade, error)
	CountActiveByProposer(ctx context.Context, proposerID uuid.UUID) (int, error)
	ListStaleActive(ctx context.Context, before time.Time, limit int) ([]*Trade, error)
	UpdateIfStatus(ctx context.Context, t *Trade, expected Status) error
}

// MessageRepository defines persistence for the trade chat ledger.
// Append order is the only order.
type MessageRepository interface {
	Append(ctx context.Context, m *Message) error
	ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]*Message, error)
}
