package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
)

type MatchRepo struct {
	store *Store
}

func NewMatchRepo(store *Store) *MatchRepo {
	return &MatchRepo{store: store}
}

func (r *MatchRepo) GetByID(_ context.Context, id string) (model.Match, error) {
	var m model.Match
	err := r.store.view(func(txn *badger.Txn) error {
		return getJSON(txn, matchKey(id), &m)
	})
	return m, err
}

func (r *MatchRepo) FindActiveByPair(_ context.Context, a, b string) (model.Match, error) {
	var m model.Match
	err := r.store.view(func(txn *badger.Txn) error {
		id, err := getString(txn, activePairKey(a, b))
		if err != nil {
			return err
		}
		return getJSON(txn, matchKey(id), &m)
	})
	return m, err
}

func (r *MatchRepo) ListForProfile(_ context.Context, profileID string, includeInactive bool) ([]model.Match, error) {
	items := make([]model.Match, 0)
	err := r.store.view(func(txn *badger.Txn) error {
		prefix := profileMatchesPrefix(profileID)
		for _, key := range keysWithPrefix(txn, prefix) {
			var m model.Match
			if err := getJSON(txn, matchKey(lastSegment(key, prefix)), &m); err != nil {
				return err
			}
			if includeInactive || m.Active() {
				items = append(items, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b model.Match) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return items, nil
}

func (r *MatchRepo) Unmatch(_ context.Context, id, by string, at time.Time) (model.Match, error) {
	var out model.Match
	err := r.store.update(func(txn *badger.Txn) error {
		var m model.Match
		if err := getJSON(txn, matchKey(id), &m); err != nil {
			return err
		}
		if !m.Active() {
			out = m
			return nil
		}

		unmatchedAt := at
		m.Status = enums.MatchStatusUnmatched
		m.UnmatchedAt = &unmatchedAt
		m.UnmatchedBy = by
		if err := setJSON(txn, matchKey(id), m); err != nil {
			return err
		}
		if err := txn.Delete(activePairKey(m.UserAID, m.UserBID)); err != nil {
			return err
		}

		for _, pair := range [][2]string{{m.UserAID, m.UserBID}, {m.UserBID, m.UserAID}} {
			var profile model.Profile
			if err := getJSON(txn, profileKey(pair[0]), &profile); err != nil {
				return err
			}
			profile.RemoveMatch(pair[1])
			if err := setJSON(txn, profileKey(pair[0]), profile); err != nil {
				return err
			}
		}

		out = m
		return nil
	})
	if err != nil {
		return model.Match{}, err
	}
	return out, nil
}
