package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barterhub/barterhub/internal/domain/object"
)

const objectColumns = `id, object_id, owner_id, title, description, category, status, locked_by, created_at, updated_at`

// ObjectRepository implements object.Repository and object.Ledger. The guard
// operations are conditional bulk updates inside a transaction: the affected
// row count tells whether every object was in the required state.
type ObjectRepository struct {
	pool *pgxpool.Pool
}

func NewObjectRepository(pool *pgxpool.Pool) *ObjectRepository {
	return &ObjectRepository{pool: pool}
}

func (r *ObjectRepository) Create(ctx context.Context, o *object.Object) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO objects
		(object_id, owner_id, title, description, category, status, locked_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, o.ObjectID, o.OwnerID, o.Title, o.Description, o.Category, o.Status, o.LockedBy, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *ObjectRepository) GetByID(ctx context.Context, objectID uuid.UUID) (*object.Object, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE object_id=$1
	`, objectID)
	return scanObject(row)
}

func (r *ObjectRepository) GetByIDs(ctx context.Context, objectIDs []uuid.UUID) ([]*object.Object, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE object_id = ANY($1)
	`, objectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var objects []*object.Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

func (r *ObjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*object.Object, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE owner_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var objects []*object.Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// Lock flips every object to locked for the trade, all or nothing. Objects
// already locked by the same trade count as acquired.
func (r *ObjectRepository) Lock(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE objects
		SET status='LOCKED', locked_by=$2, updated_at=$3
		WHERE object_id = ANY($1)
		AND (status='AVAILABLE' OR (status='LOCKED' AND locked_by=$2))
	`, objectIDs, tradeID, time.Now().UTC())
	if err != nil {
		return err
	}
	if res.RowsAffected() != int64(len(objectIDs)) {
		return object.ErrNotAvailable
	}
	return tx.Commit(ctx)
}

// Release returns to available only the objects this trade holds. Locks held
// by other trades are untouched.
func (r *ObjectRepository) Release(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE objects
		SET status='AVAILABLE', locked_by=NULL, updated_at=$3
		WHERE object_id = ANY($1) AND status='LOCKED' AND locked_by=$2
	`, objectIDs, tradeID, time.Now().UTC())
	return err
}

// Finalize moves the trade's locked objects to traded, all or nothing.
func (r *ObjectRepository) Finalize(ctx context.Context, objectIDs []uuid.UUID, tradeID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE objects
		SET status='TRADED', locked_by=NULL, updated_at=$3
		WHERE object_id = ANY($1) AND status='LOCKED' AND locked_by=$2
	`, objectIDs, tradeID, time.Now().UTC())
	if err != nil {
		return err
	}
	if res.RowsAffected() != int64(len(objectIDs)) {
		return object.ErrNotLocked
	}
	return tx.Commit(ctx)
}

func scanObject(row pgx.Row) (*object.Object, error) {
	var o object.Object
	var description *string
	var category *string
	var lockedBy *uuid.UUID
	if err := row.Scan(&o.ID, &o.ObjectID, &o.OwnerID, &o.Title, &description, &category, &o.Status, &lockedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	o.Description = description
	o.Category = category
	o.LockedBy = lockedBy
	return &o, nil
}
