package object

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read/write access to registered objects.
type Repository interface {
	Create(ctx context.Context, o *Object) error
	GetByID(ctx context.Context, objectID uuid.UUID) (*Object, error)
	GetByIDs(ctx context.Context, objectIDs []uuid.UUID) ([]*Object, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Object, error)
}

// Ledger is the availability guard's storage contract. All three operations
// must be atomic across the whole id set: either every object flips, or none.
type Ledger interface {
	// Lock flips AVAILABLE -> LOCKED for every id, tagging the owning trade.
	// Objects already locked by the same trade are tolerated. Any other state
	// fails the whole call with ErrNotAvailable.
	Lock(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error
	// Release returns objects locked by the trade to AVAILABLE. Objects not
	// locked, or locked by a different trade, are left untouched.
	Release(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error
	// Finalize flips LOCKED -> TRADED for objects held by the trade. Not
	// reversible; fails with ErrNotLocked if any object is not held.
	Finalize(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error
}
