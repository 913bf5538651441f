package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type LikeRepo struct {
	store *Store
}

func NewLikeRepo(store *Store) *LikeRepo {
	return &LikeRepo{store: store}
}

// InPairTx runs fn in one serializable transaction. Reading either profile
// puts it in the read set, so a concurrent like on the same pair conflicts
// at commit and fn is re-run against the committed state.
func (r *LikeRepo) InPairTx(ctx context.Context, _, _ string, fn func(context.Context, repo.PairTx) error) error {
	return r.store.update(func(txn *badger.Txn) error {
		return fn(ctx, &pairTx{txn: txn})
	})
}

type pairTx struct {
	txn *badger.Txn
}

func (p *pairTx) Profile(_ context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	if err := getJSON(p.txn, profileKey(id), &profile); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

func (p *pairTx) AddLike(_ context.Context, fromID, toID string, at time.Time) error {
	var profile model.Profile
	if err := getJSON(p.txn, profileKey(fromID), &profile); err != nil {
		return err
	}
	if profile.HasLiked(toID) {
		return repo.ErrDuplicate
	}
	profile.AddLike(toID)
	profile.UpdatedAt = at
	return setJSON(p.txn, profileKey(fromID), profile)
}

func (p *pairTx) LinkMatch(_ context.Context, a, b string) error {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		var profile model.Profile
		if err := getJSON(p.txn, profileKey(pair[0]), &profile); err != nil {
			return err
		}
		profile.AddMatch(pair[1])
		if err := setJSON(p.txn, profileKey(pair[0]), profile); err != nil {
			return err
		}
	}
	return nil
}

func (p *pairTx) CreateMatch(_ context.Context, m model.Match) error {
	m.UserAID, m.UserBID = model.OrderedPair(m.UserAID, m.UserBID)

	taken, err := exists(p.txn, activePairKey(m.UserAID, m.UserBID))
	if err != nil {
		return err
	}
	if taken {
		return repo.ErrDuplicateMatch
	}

	if err := setJSON(p.txn, matchKey(m.ID), m); err != nil {
		return err
	}
	if err := p.txn.Set(activePairKey(m.UserAID, m.UserBID), []byte(m.ID)); err != nil {
		return err
	}
	if err := p.txn.Set(profileMatchKey(m.UserAID, m.ID), nil); err != nil {
		return err
	}
	return p.txn.Set(profileMatchKey(m.UserBID, m.ID), nil)
}
