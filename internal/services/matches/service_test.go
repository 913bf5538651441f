package matches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type matchStoreStub struct {
	items         map[string]model.Match
	unmatchCalls  int
	lastUnmatchBy string
}

func (s *matchStoreStub) GetByID(_ context.Context, id string) (model.Match, error) {
	m, ok := s.items[id]
	if !ok {
		return model.Match{}, repo.ErrNotFound
	}
	return m, nil
}

func (s *matchStoreStub) ListForProfile(_ context.Context, profileID string, includeInactive bool) ([]model.Match, error) {
	out := make([]model.Match, 0)
	for _, id := range []string{"m3", "m2", "m1"} {
		m, ok := s.items[id]
		if !ok || !m.HasParticipant(profileID) {
			continue
		}
		if includeInactive || m.Active() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *matchStoreStub) Unmatch(_ context.Context, id, by string, at time.Time) (model.Match, error) {
	s.unmatchCalls++
	s.lastUnmatchBy = by
	m := s.items[id]
	m.Status = enums.MatchStatusUnmatched
	m.UnmatchedAt = &at
	m.UnmatchedBy = by
	s.items[id] = m
	return m, nil
}

type profileStoreStub map[string]model.Profile

func (s profileStoreStub) GetMany(_ context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

var t0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func fixture() (*matchStoreStub, profileStoreStub) {
	store := &matchStoreStub{items: map[string]model.Match{
		"m1": {ID: "m1", UserAID: "a", UserBID: "b", Status: enums.MatchStatusActive, CreatedAt: t0},
		"m2": {ID: "m2", UserAID: "a", UserBID: "c", Status: enums.MatchStatusUnmatched, CreatedAt: t0.Add(time.Hour)},
		"m3": {ID: "m3", UserAID: "a", UserBID: "d", Status: enums.MatchStatusActive, CreatedAt: t0.Add(2 * time.Hour)},
	}}
	profiles := profileStoreStub{
		"a": {ID: "a", Name: "Ann"},
		"b": {ID: "b", Name: "Bea"},
		"c": {ID: "c", Name: "Cal"},
		"d": {ID: "d", Name: "Dee"},
	}
	return store, profiles
}

func TestListReturnsActiveCounterparts(t *testing.T) {
	store, profiles := fixture()
	svc := NewService(store, profiles)

	items, err := svc.List(context.Background(), "a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("unexpected item count: got %d want 2", len(items))
	}
	if items[0].Counterpart.ID != "d" || items[1].Counterpart.ID != "b" {
		t.Fatalf("unexpected order: %s, %s", items[0].Counterpart.ID, items[1].Counterpart.ID)
	}

	fromB, err := svc.List(context.Background(), "b")
	if err != nil {
		t.Fatalf("list for b: %v", err)
	}
	if len(fromB) != 1 || fromB[0].Counterpart.ID != "a" {
		t.Fatalf("counterpart for b must be a: %+v", fromB)
	}
}

func TestHistoryIncludesUnmatched(t *testing.T) {
	store, profiles := fixture()
	svc := NewService(store, profiles)

	items, err := svc.History(context.Background(), "a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("unexpected item count: got %d want 3", len(items))
	}
	if items[1].Match.Status != enums.MatchStatusUnmatched {
		t.Fatalf("unexpected status of m2: %s", items[1].Match.Status)
	}
}

func TestGetChecksParticipation(t *testing.T) {
	store, profiles := fixture()
	svc := NewService(store, profiles)
	ctx := context.Background()

	detail, err := svc.Get(ctx, "m1", "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.UserA.ID != "a" || detail.UserB.ID != "b" {
		t.Fatalf("unexpected participants: %+v", detail)
	}

	if _, err := svc.Get(ctx, "m1", "c"); !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("expected ErrNotInMatch, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing", "a"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestUnmatchIsIdempotent(t *testing.T) {
	store, profiles := fixture()
	svc := NewService(store, profiles)
	ctx := context.Background()

	m, err := svc.Unmatch(ctx, "m1", "b")
	if err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if m.Status != enums.MatchStatusUnmatched || store.lastUnmatchBy != "b" {
		t.Fatalf("unexpected unmatch result: %+v by %q", m, store.lastUnmatchBy)
	}

	again, err := svc.Unmatch(ctx, "m1", "a")
	if err != nil {
		t.Fatalf("second unmatch: %v", err)
	}
	if again.Status != enums.MatchStatusUnmatched || store.unmatchCalls != 1 {
		t.Fatalf("second unmatch must not write: calls=%d", store.unmatchCalls)
	}

	if _, err := svc.Unmatch(ctx, "m3", "b"); !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("expected ErrNotInMatch, got %v", err)
	}
	if _, err := svc.Unmatch(ctx, "missing", "a"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}
