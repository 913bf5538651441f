package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

const activePairIndex = "matches_active_pair_uniq"

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// InPairTx runs fn in one transaction holding the advisory lock for the pair,
// so reciprocal likes from both sides are applied one after the other.
func (r *LikeRepo) InPairTx(ctx context.Context, a, b string, fn func(context.Context, repo.PairTx) error) error {
	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if err := lockPair(txCtx, tx, a, b); err != nil {
			return err
		}
		return fn(txCtx, &pairTx{tx: tx})
	})
}

type pairTx struct {
	tx pgx.Tx
}

func (p *pairTx) Profile(ctx context.Context, id string) (model.Profile, error) {
	return getProfile(ctx, p.tx, `WHERE p.id = $1`, id)
}

func (p *pairTx) AddLike(ctx context.Context, fromID, toID string, at time.Time) error {
	result, err := p.tx.Exec(ctx, `
INSERT INTO profile_likes (from_id, to_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (from_id, to_id) DO NOTHING
`, fromID, toID, at.UTC())
	if err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repo.ErrDuplicate
	}
	return nil
}

func (p *pairTx) LinkMatch(ctx context.Context, a, b string) error {
	_, err := p.tx.Exec(ctx, `
INSERT INTO profile_matches (profile_id, counterpart_id)
VALUES ($1, $2), ($2, $1)
ON CONFLICT (profile_id, counterpart_id) DO NOTHING
`, a, b)
	if err != nil {
		return fmt.Errorf("link match: %w", err)
	}
	return nil
}

func (p *pairTx) CreateMatch(ctx context.Context, m model.Match) error {
	userA, userB := model.OrderedPair(m.UserAID, m.UserBID)
	_, err := p.tx.Exec(ctx, `
INSERT INTO matches (
	id,
	user_a_id,
	user_b_id,
	status,
	created_at,
	last_interaction_at
) VALUES ($1, $2, $3, $4, $5, $6)
`, m.ID, userA, userB, string(m.Status), m.CreatedAt.UTC(), m.LastInteractionAt.UTC())
	if err != nil {
		if isUniqueViolation(err, activePairIndex) {
			return repo.ErrDuplicateMatch
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}
