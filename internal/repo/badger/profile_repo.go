package badger

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type ProfileRepo struct {
	store *Store
}

func NewProfileRepo(store *Store) *ProfileRepo {
	return &ProfileRepo{store: store}
}

func (r *ProfileRepo) Create(_ context.Context, profile model.Profile) error {
	return r.store.update(func(txn *badger.Txn) error {
		taken, err := exists(txn, profileAccountKey(profile.AccountID))
		if err != nil {
			return err
		}
		if taken {
			return repo.ErrDuplicate
		}
		if err := setJSON(txn, profileKey(profile.ID), profile); err != nil {
			return err
		}
		return txn.Set(profileAccountKey(profile.AccountID), []byte(profile.ID))
	})
}

// Update replaces the owner editable fields and keeps the stored like and
// match sets, which only the pair transaction and unmatch may change.
func (r *ProfileRepo) Update(_ context.Context, profile model.Profile) error {
	return r.store.update(func(txn *badger.Txn) error {
		var current model.Profile
		if err := getJSON(txn, profileKey(profile.ID), &current); err != nil {
			return err
		}
		if current.AccountID != profile.AccountID {
			return repo.ErrNotFound
		}
		profile.Likes = current.Likes
		profile.Matches = current.Matches
		profile.CreatedAt = current.CreatedAt
		return setJSON(txn, profileKey(profile.ID), profile)
	})
}

func (r *ProfileRepo) GetByID(_ context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	err := r.store.view(func(txn *badger.Txn) error {
		return getJSON(txn, profileKey(id), &profile)
	})
	return profile, err
}

func (r *ProfileRepo) GetByAccountID(_ context.Context, accountID string) (model.Profile, error) {
	var profile model.Profile
	err := r.store.view(func(txn *badger.Txn) error {
		id, err := getString(txn, profileAccountKey(accountID))
		if err != nil {
			return err
		}
		return getJSON(txn, profileKey(id), &profile)
	})
	return profile, err
}

func (r *ProfileRepo) GetMany(_ context.Context, ids []string) (map[string]model.Profile, error) {
	items := make(map[string]model.Profile, len(ids))
	err := r.store.view(func(txn *badger.Txn) error {
		for _, id := range ids {
			var profile model.Profile
			if err := getJSON(txn, profileKey(id), &profile); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					continue
				}
				return err
			}
			items[id] = profile
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListCandidates scans every profile. The embedded backend is meant for
// single node and test deployments where a full scan is acceptable.
func (r *ProfileRepo) ListCandidates(_ context.Context, q repo.CandidateQuery) ([]model.Profile, error) {
	items := make([]model.Profile, 0)
	err := r.store.view(func(txn *badger.Txn) error {
		return eachJSON(txn, []byte(profilePrefix), func(p model.Profile) error {
			if prefiltered(q, p) {
				items = append(items, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b model.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return items, nil
}

func prefiltered(q repo.CandidateQuery, p model.Profile) bool {
	switch {
	case !p.Active, p.ID == q.ExcludeID:
		return false
	case q.AgeMin > 0 && p.Age < q.AgeMin:
		return false
	case q.AgeMax > 0 && p.Age > q.AgeMax:
		return false
	case q.Gender != "" && string(p.Gender) != q.Gender:
		return false
	case q.UseLat && (p.Location.Latitude < q.LatMin || p.Location.Latitude > q.LatMax):
		return false
	}
	return true
}
