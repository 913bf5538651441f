package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/infra/metrics"
	"github.com/ivankudzin/crush/internal/repo"
)

var (
	ErrMatchNotFound = fmt.Errorf("match not found: %w", apperr.ErrNotFound)
	ErrNotInMatch    = fmt.Errorf("not authorized to access this match: %w", apperr.ErrForbidden)
)

type MatchStore interface {
	GetByID(ctx context.Context, id string) (model.Match, error)
	ListForProfile(ctx context.Context, profileID string, includeInactive bool) ([]model.Match, error)
	Unmatch(ctx context.Context, id, by string, at time.Time) (model.Match, error)
}

type ProfileStore interface {
	GetMany(ctx context.Context, ids []string) (map[string]model.Profile, error)
}

type Service struct {
	matches  MatchStore
	profiles ProfileStore
	now      func() time.Time
}

// Item pairs a match with the other participant.
type Item struct {
	Match       model.Match
	Counterpart model.Profile
}

// Detail is a match with both participants.
type Detail struct {
	Match model.Match
	UserA model.Profile
	UserB model.Profile
}

func NewService(matches MatchStore, profiles ProfileStore) *Service {
	return &Service{
		matches:  matches,
		profiles: profiles,
		now:      time.Now,
	}
}

// List returns the active matches of profileID, newest first.
func (s *Service) List(ctx context.Context, profileID string) ([]Item, error) {
	return s.list(ctx, profileID, false)
}

// History returns every match of profileID including unmatched ones, newest first.
func (s *Service) History(ctx context.Context, profileID string) ([]Item, error) {
	return s.list(ctx, profileID, true)
}

func (s *Service) Get(ctx context.Context, matchID, callerID string) (Detail, error) {
	m, err := s.authorized(ctx, matchID, callerID)
	if err != nil {
		return Detail{}, err
	}

	profiles, err := s.profiles.GetMany(ctx, []string{m.UserAID, m.UserBID})
	if err != nil {
		return Detail{}, fmt.Errorf("load match participants: %w", err)
	}
	return Detail{
		Match: m,
		UserA: profiles[m.UserAID],
		UserB: profiles[m.UserBID],
	}, nil
}

// Unmatch ends the match for both sides. Likes and messages are kept and an
// already unmatched match is returned unchanged.
func (s *Service) Unmatch(ctx context.Context, matchID, callerID string) (model.Match, error) {
	m, err := s.authorized(ctx, matchID, callerID)
	if err != nil {
		return model.Match{}, err
	}
	if !m.Active() {
		return m, nil
	}

	updated, err := s.matches.Unmatch(ctx, matchID, callerID, s.now().UTC())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("unmatch: %w", err)
	}
	metrics.Unmatched()
	return updated, nil
}

func (s *Service) authorized(ctx context.Context, matchID, callerID string) (model.Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !m.HasParticipant(callerID) {
		return model.Match{}, ErrNotInMatch
	}
	return m, nil
}

func (s *Service) list(ctx context.Context, profileID string, includeInactive bool) ([]Item, error) {
	items, err := s.matches.ListForProfile(ctx, profileID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if len(items) == 0 {
		return []Item{}, nil
	}

	ids := make([]string, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.Counterpart(profileID))
	}
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load counterparts: %w", err)
	}

	out := make([]Item, 0, len(items))
	for _, m := range items {
		counterpart, ok := profiles[m.Counterpart(profileID)]
		if !ok {
			continue
		}
		out = append(out, Item{Match: m, Counterpart: counterpart})
	}
	return out, nil
}
