package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

const matchSelect = `
SELECT
	id,
	user_a_id,
	user_b_id,
	status,
	created_at,
	last_interaction_at,
	unmatched_at,
	COALESCE(unmatched_by, '')
FROM matches
`

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func (r *MatchRepo) GetByID(ctx context.Context, id string) (model.Match, error) {
	return getMatch(ctx, r.pool, `WHERE id = $1`, id)
}

func (r *MatchRepo) FindActiveByPair(ctx context.Context, a, b string) (model.Match, error) {
	userA, userB := model.OrderedPair(a, b)
	return getMatch(ctx, r.pool, `WHERE user_a_id = $1 AND user_b_id = $2 AND status = 'active'`, userA, userB)
}

// ListForProfile returns the profile's matches newest first.
func (r *MatchRepo) ListForProfile(ctx context.Context, profileID string, includeInactive bool) ([]model.Match, error) {
	rows, err := r.pool.Query(ctx, matchSelect+`
WHERE
	(user_a_id = $1 OR user_b_id = $1)
	AND ($2 OR status = 'active')
ORDER BY created_at DESC, id DESC
`, profileID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0)
	for rows.Next() {
		item, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}

// Unmatch flips an active match and removes both profiles from each other's
// matched set in one transaction. An already unmatched match is returned as is.
func (r *MatchRepo) Unmatch(ctx context.Context, id, by string, at time.Time) (model.Match, error) {
	var out model.Match
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		current, err := getMatch(txCtx, tx, `WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if err := lockPair(txCtx, tx, current.UserAID, current.UserBID); err != nil {
			return err
		}

		current, err = getMatch(txCtx, tx, `WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if !current.Active() {
			out = current
			return nil
		}

		if _, err := tx.Exec(txCtx, `
UPDATE matches
SET status = $2, unmatched_at = $3, unmatched_by = $4
WHERE id = $1
`, id, string(enums.MatchStatusUnmatched), at.UTC(), by); err != nil {
			return fmt.Errorf("update match status: %w", err)
		}
		if _, err := tx.Exec(txCtx, `
DELETE FROM profile_matches
WHERE (profile_id = $1 AND counterpart_id = $2) OR (profile_id = $2 AND counterpart_id = $1)
`, current.UserAID, current.UserBID); err != nil {
			return fmt.Errorf("unlink match: %w", err)
		}

		unmatchedAt := at.UTC()
		current.Status = enums.MatchStatusUnmatched
		current.UnmatchedAt = &unmatchedAt
		current.UnmatchedBy = by
		out = current
		return nil
	})
	if err != nil {
		return model.Match{}, err
	}
	return out, nil
}

func getMatch(ctx context.Context, q querier, where string, args ...any) (model.Match, error) {
	item, err := scanMatch(q.QueryRow(ctx, matchSelect+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, repo.ErrNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	return item, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var (
		item   model.Match
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.UserAID,
		&item.UserBID,
		&status,
		&item.CreatedAt,
		&item.LastInteractionAt,
		&item.UnmatchedAt,
		&item.UnmatchedBy,
	); err != nil {
		return model.Match{}, err
	}
	item.Status = enums.MatchStatus(status)
	return item, nil
}
