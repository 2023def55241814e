package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barterhub/barterhub/internal/domain/trade"
)

// MessageRepository implements trade.MessageRepository.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Append(ctx context.Context, m *trade.Message) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trade_messages (message_id, trade_id, author_id, content, sent_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, m.MessageID, m.TradeID, m.AuthorID, m.Content, m.SentAt)
	return row.Scan(&m.ID)
}

func (r *MessageRepository) ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]*trade.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, trade_id, author_id, content, sent_at
		FROM trade_messages WHERE trade_id=$1
		ORDER BY id ASC LIMIT $2 OFFSET $3
	`, tradeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []*trade.Message
	for rows.Next() {
		var m trade.Message
		if err := rows.Scan(&m.ID, &m.MessageID, &m.TradeID, &m.AuthorID, &m.Content, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
