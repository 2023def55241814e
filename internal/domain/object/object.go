package object

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents object availability in the ledger.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusLocked    Status = "LOCKED"
	StatusTraded    Status = "TRADED"
)

var (
	// ErrNotAvailable is returned by Lock when any requested object is not
	// currently available. The lock is all-or-nothing.
	ErrNotAvailable = errors.New("object not available")
	// ErrNotLocked is returned by Finalize when an object is not locked by
	// the finalizing trade.
	ErrNotLocked = errors.New("object not locked by trade")
)

// Object is a tradeable item tracked by the ledger.
type Object struct {
	ID          int64      `json:"id"`
	ObjectID    uuid.UUID  `json:"objectId"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Status      Status     `json:"status"`
	LockedBy    *uuid.UUID `json:"lockedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// New registers an available object for an owner.
func New(owner uuid.UUID, title string, description, category *string, now time.Time) (*Object, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(title) > 200 {
		return nil, errors.New("title exceeds 200 characters")
	}
	return &Object{
		ObjectID:    uuid.New(),
		OwnerID:     owner,
		Title:       title,
		Description: description,
		Category:    category,
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsAvailable reports whether the object can be referenced by a new offer.
func (o *Object) IsAvailable() bool {
	return o.Status == StatusAvailable
}

// IsHeldBy reports whether the object is locked by the given trade.
func (o *Object) IsHeldBy(tradeID uuid.UUID) bool {
	return o.Status == StatusLocked && o.LockedBy != nil && *o.LockedBy == tradeID
}
