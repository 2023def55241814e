package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barterhub/barterhub/internal/domain/trade"
)

const tradeColumns = `id, trade_id, proposer_id, receiver_id, proposed_objects, requested_objects, message, status, last_offer_by, delivery, created_at, updated_at, accepted_at, refused_at, cancelled_at, completed_at`

// TradeRepository implements trade.Repository.
type TradeRepository struct {
	pool *pgxpool.Pool
}

func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

func (r *TradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	delivery, err := marshalDelivery(t.Delivery)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO trades
		(trade_id, proposer_id, receiver_id, proposed_objects, requested_objects, message, status, last_offer_by, delivery, created_at, updated_at, accepted_at, refused_at, cancelled_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, t.TradeID, t.ProposerID, t.ReceiverID, t.ProposedObjects, t.RequestedObjects, t.Message, t.Status, t.LastOfferBy, delivery, t.CreatedAt, t.UpdatedAt, t.AcceptedAt, t.RefusedAt, t.CancelledAt, t.CompletedAt)
	return err
}

func (r *TradeRepository) GetByID(ctx context.Context, tradeID uuid.UUID) (*trade.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tradeColumns+`
		FROM trades WHERE trade_id=$1
	`, tradeID)
	return scanTrade(row)
}

func (r *TradeRepository) List(ctx context.Context, filter trade.Filter, limit, offset int) ([]*trade.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE (proposer_id=$1 OR receiver_id=$1)`
	args := []interface{}{filter.Participant}
	idx := 2
	if filter.Role != nil {
		switch *filter.Role {
		case trade.RoleSent:
			query += " AND proposer_id=$1"
		case trade.RoleReceived:
			query += " AND receiver_id=$1"
		}
	}
	if filter.Status != nil {
		query += " AND status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trades []*trade.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (r *TradeRepository) CountActiveByProposer(ctx context.Context, proposerID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trades
		WHERE proposer_id=$1 AND status IN ('PENDING','PROPOSED','ACCEPTED')
	`, proposerID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TradeRepository) ListStaleActive(ctx context.Context, before time.Time, limit int) ([]*trade.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE status IN ('PENDING','PROPOSED') AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trades []*trade.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// UpdateIfStatus writes the trade only when the stored status still matches
// expected. Zero affected rows means another writer got there first.
func (r *TradeRepository) UpdateIfStatus(ctx context.Context, t *trade.Trade, expected trade.Status) error {
	delivery, err := marshalDelivery(t.Delivery)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE trades
		SET proposed_objects=$1, requested_objects=$2, status=$3, last_offer_by=$4, delivery=$5, updated_at=$6, accepted_at=$7, refused_at=$8, cancelled_at=$9, completed_at=$10
		WHERE trade_id=$11 AND status=$12
	`, t.ProposedObjects, t.RequestedObjects, t.Status, t.LastOfferBy, delivery, t.UpdatedAt, t.AcceptedAt, t.RefusedAt, t.CancelledAt, t.CompletedAt, t.TradeID, expected)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return trade.ErrStatusChanged
	}
	return nil
}

func scanTrade(row pgx.Row) (*trade.Trade, error) {
	var t trade.Trade
	var delivery json.RawMessage
	if err := row.Scan(&t.ID, &t.TradeID, &t.ProposerID, &t.ReceiverID, &t.ProposedObjects, &t.RequestedObjects, &t.Message, &t.Status, &t.LastOfferBy, &delivery, &t.CreatedAt, &t.UpdatedAt, &t.AcceptedAt, &t.RefusedAt, &t.CancelledAt, &t.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(delivery) > 0 {
		var d trade.Delivery
		if err := json.Unmarshal(delivery, &d); err != nil {
			return nil, err
		}
		t.Delivery = &d
	}
	return &t, nil
}

func marshalDelivery(d *trade.Delivery) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}
