package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

const messageSelect = `
SELECT id, match_id, sender_id, recipient_id, content, read, created_at
FROM messages
`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create stores msg and moves its match's last interaction to msg.CreatedAt in
// one transaction. The row lock taken by the update orders it against Unmatch;
// a match that is missing or no longer active yields repo.ErrNotFound.
func (r *MessageRepo) Create(ctx context.Context, msg model.Message) error {
	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(txCtx, `
UPDATE matches SET last_interaction_at = $2
WHERE id = $1 AND status = 'active'
`, msg.MatchID, msg.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("touch match: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repo.ErrNotFound
		}

		_, err = tx.Exec(txCtx, `
INSERT INTO messages (id, match_id, sender_id, recipient_id, content, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, msg.ID, msg.MatchID, msg.SenderID, msg.RecipientID, msg.Content, msg.Read, msg.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (model.Message, error) {
	var msg model.Message
	err := r.pool.QueryRow(ctx, messageSelect+`WHERE id = $1`, id).Scan(
		&msg.ID,
		&msg.MatchID,
		&msg.SenderID,
		&msg.RecipientID,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, repo.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// ListConversation returns messages exchanged by the two profiles, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, a, b string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, messageSelect+`
WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
ORDER BY created_at ASC, id ASC
`, a, b)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.MatchID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversation: %w", rows.Err())
	}
	return items, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `UPDATE messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
