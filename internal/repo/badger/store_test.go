package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{}, nil)
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func seedProfile(t *testing.T, profiles *ProfileRepo, id string, createdAt time.Time) model.Profile {
	t.Helper()

	profile := model.Profile{
		ID:        id,
		AccountID: "acc-" + id,
		Name:      id,
		Age:       25,
		Gender:    enums.GenderFemale,
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := profiles.Create(context.Background(), profile); err != nil {
		t.Fatalf("create profile %s: %v", id, err)
	}
	return profile
}

func TestAccountRepoRejectsDuplicateEmail(t *testing.T) {
	accounts := NewAccountRepo(newTestStore(t))
	ctx := context.Background()

	first := model.Account{ID: "a1", Email: "x@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
	if err := accounts.Create(ctx, first); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := accounts.Create(ctx, model.Account{ID: "a2", Email: "x@example.com"}); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := accounts.GetByEmail(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "a1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected account: %+v", got)
	}
	if _, err := accounts.GetByID(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepoOnePerAccountAndUpdateKeepsSets(t *testing.T) {
	store := newTestStore(t)
	profiles := NewProfileRepo(store)
	likes := NewLikeRepo(store)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p := seedProfile(t, profiles, "p1", now)
	seedProfile(t, profiles, "p2", now)

	dup := p
	dup.ID = "p1-dup"
	if err := profiles.Create(ctx, dup); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second profile, got %v", err)
	}

	err := likes.InPairTx(ctx, "p1", "p2", func(ctx context.Context, tx repo.PairTx) error {
		return tx.AddLike(ctx, "p1", "p2", now)
	})
	if err != nil {
		t.Fatalf("add like: %v", err)
	}

	p.Bio = "updated"
	if err := profiles.Update(ctx, p); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	got, err := profiles.GetByAccountID(ctx, "acc-p1")
	if err != nil {
		t.Fatalf("get by account: %v", err)
	}
	if got.Bio != "updated" {
		t.Fatalf("unexpected bio: %q", got.Bio)
	}
	if !got.HasLiked("p2") {
		t.Fatalf("update must not drop stored likes: %+v", got.Likes)
	}
}

func TestPairTxDuplicateMatchRollsBack(t *testing.T) {
	store := newTestStore(t)
	profiles := NewProfileRepo(store)
	likes := NewLikeRepo(store)
	matches := NewMatchRepo(store)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedProfile(t, profiles, "a", now)
	seedProfile(t, profiles, "b", now)

	create := func(id string) error {
		return likes.InPairTx(ctx, "a", "b", func(ctx context.Context, tx repo.PairTx) error {
			if err := tx.LinkMatch(ctx, "a", "b"); err != nil {
				return err
			}
			return tx.CreateMatch(ctx, model.Match{ID: id, UserAID: "b", UserBID: "a", Status: enums.MatchStatusActive, CreatedAt: now})
		})
	}

	if err := create("m1"); err != nil {
		t.Fatalf("create first match: %v", err)
	}
	if err := create("m2"); !errors.Is(err, repo.ErrDuplicateMatch) {
		t.Fatalf("expected ErrDuplicateMatch, got %v", err)
	}
	if _, err := matches.GetByID(ctx, "m2"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second match must not be stored, got %v", err)
	}

	m, err := matches.FindActiveByPair(ctx, "b", "a")
	if err != nil {
		t.Fatalf("find active pair: %v", err)
	}
	if m.UserAID != "a" || m.UserBID != "b" {
		t.Fatalf("pair must be stored ordered: %+v", m)
	}
}

func TestMatchRepoUnmatchUnlinksAndIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	profiles := NewProfileRepo(store)
	likes := NewLikeRepo(store)
	matches := NewMatchRepo(store)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedProfile(t, profiles, "a", now)
	seedProfile(t, profiles, "b", now)

	err := likes.InPairTx(ctx, "a", "b", func(ctx context.Context, tx repo.PairTx) error {
		if err := tx.LinkMatch(ctx, "a", "b"); err != nil {
			return err
		}
		return tx.CreateMatch(ctx, model.Match{ID: "m1", UserAID: "a", UserBID: "b", Status: enums.MatchStatusActive, CreatedAt: now})
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	got, err := matches.Unmatch(ctx, "m1", "a", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if got.Status != enums.MatchStatusUnmatched || got.UnmatchedBy != "a" {
		t.Fatalf("unexpected match after unmatch: %+v", got)
	}

	again, err := matches.Unmatch(ctx, "m1", "b", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second unmatch: %v", err)
	}
	if again.UnmatchedBy != "a" {
		t.Fatalf("second unmatch must not change the record: %+v", again)
	}

	for _, id := range []string{"a", "b"} {
		p, err := profiles.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get profile %s: %v", id, err)
		}
		if len(p.Matches) != 0 {
			t.Fatalf("profile %s still has matches: %v", id, p.Matches)
		}
	}

	active, err := matches.ListForProfile(ctx, "a", false)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("unexpected active matches: %d", len(active))
	}
	all, err := matches.ListForProfile(ctx, "b", true)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("unexpected history size: got %d want 1", len(all))
	}
}

func seedMatch(t *testing.T, store *Store, id, a, b string, at time.Time) {
	t.Helper()

	m := model.Match{ID: id, UserAID: a, UserBID: b, Status: enums.MatchStatusActive, CreatedAt: at, LastInteractionAt: at}
	err := NewLikeRepo(store).InPairTx(context.Background(), a, b, func(ctx context.Context, tx repo.PairTx) error {
		return tx.CreateMatch(ctx, m)
	})
	if err != nil {
		t.Fatalf("seed match %s: %v", id, err)
	}
}

func TestMessageRepoConversationOrder(t *testing.T) {
	store := newTestStore(t)
	messages := NewMessageRepo(store)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedMatch(t, store, "ab", "a", "b", base)
	seedMatch(t, store, "ac", "a", "c", base)

	for i, spec := range []struct{ id, match, from, to string }{
		{id: "m3", match: "ab", from: "a", to: "b"},
		{id: "m1", match: "ab", from: "b", to: "a"},
		{id: "m2", match: "ac", from: "a", to: "c"},
	} {
		msg := model.Message{ID: spec.id, MatchID: spec.match, SenderID: spec.from, RecipientID: spec.to, Content: "hi", CreatedAt: base.Add(time.Duration(i+1) * time.Second)}
		if err := messages.Create(ctx, msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	items, err := messages.ListConversation(ctx, "b", "a")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(items) != 2 || items[0].ID != "m3" || items[1].ID != "m1" {
		t.Fatalf("unexpected conversation: %+v", items)
	}

	if err := messages.Delete(ctx, "m3"); err != nil {
		t.Fatalf("delete message: %v", err)
	}
	items, err = messages.ListConversation(ctx, "a", "b")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected conversation after delete: %d", len(items))
	}
	if err := messages.MarkRead(ctx, "m3"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted message, got %v", err)
	}
}

func TestMessageRepoCreateTouchesMatchAtomically(t *testing.T) {
	store := newTestStore(t)
	messages := NewMessageRepo(store)
	matches := NewMatchRepo(store)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedMatch(t, store, "ab", "a", "b", base)

	sentAt := base.Add(time.Hour)
	if err := messages.Create(ctx, model.Message{ID: "m1", MatchID: "ab", SenderID: "a", RecipientID: "b", Content: "hi", CreatedAt: sentAt}); err != nil {
		t.Fatalf("create message: %v", err)
	}
	m, err := matches.GetByID(ctx, "ab")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if !m.LastInteractionAt.Equal(sentAt) {
		t.Fatalf("unexpected last interaction: got %s want %s", m.LastInteractionAt, sentAt)
	}

	if _, err := matches.Unmatch(ctx, "ab", "b", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	late := model.Message{ID: "m2", MatchID: "ab", SenderID: "a", RecipientID: "b", Content: "hello?", CreatedAt: base.Add(3 * time.Hour)}
	if err := messages.Create(ctx, late); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unmatched pair, got %v", err)
	}
	if err := messages.Create(ctx, model.Message{ID: "m3", MatchID: "missing", SenderID: "a", RecipientID: "b", Content: "x", CreatedAt: base}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing match, got %v", err)
	}

	if _, err := messages.GetByID(ctx, "m2"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("rejected message must not be stored, got %v", err)
	}
	m, err = matches.GetByID(ctx, "ab")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if !m.LastInteractionAt.Equal(sentAt) {
		t.Fatalf("rejected message must not touch the match: %s", m.LastInteractionAt)
	}
}
