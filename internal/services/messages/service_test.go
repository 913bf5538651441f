package messages

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
	badgerrepo "github.com/ivankudzin/crush/internal/repo/badger"
	"github.com/ivankudzin/crush/internal/services/rate"
)

type notifierStub struct {
	sent []model.Message
}

func (n *notifierStub) MessageSent(_ context.Context, msg model.Message) {
	n.sent = append(n.sent, msg)
}

type limiterStub struct {
	allowed bool
}

func (l limiterStub) Allow(context.Context, rate.Action, string) (int64, bool, error) {
	if l.allowed {
		return 0, true, nil
	}
	return 3, false, nil
}

type failingMessages struct {
	MessageStore
	err error
}

func (f failingMessages) Create(context.Context, model.Message) error {
	return f.err
}

type env struct {
	svc      *Service
	matches  *badgerrepo.MatchRepo
	notifier *notifierStub
	matchID  string
}

func newEnv(t *testing.T) env {
	t.Helper()

	store, err := badgerrepo.Open(badgerrepo.Config{}, nil)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	profiles := badgerrepo.NewProfileRepo(store)
	for _, id := range []string{"a", "b", "c"} {
		if err := profiles.Create(ctx, model.Profile{ID: id, AccountID: "acc-" + id, Active: true, CreatedAt: now}); err != nil {
			t.Fatalf("create profile %s: %v", id, err)
		}
	}

	match := model.Match{ID: "m-ab", UserAID: "a", UserBID: "b", Status: enums.MatchStatusActive, CreatedAt: now, LastInteractionAt: now}
	err = badgerrepo.NewLikeRepo(store).InPairTx(ctx, "a", "b", func(ctx context.Context, tx repo.PairTx) error {
		if err := tx.CreateMatch(ctx, match); err != nil {
			return err
		}
		return tx.LinkMatch(ctx, "a", "b")
	})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}

	matches := badgerrepo.NewMatchRepo(store)
	notifier := &notifierStub{}
	svc := NewService(Deps{
		Messages: badgerrepo.NewMessageRepo(store),
		Matches:  matches,
		Notifier: notifier,
	})
	clock := now
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return env{svc: svc, matches: matches, notifier: notifier, matchID: match.ID}
}

func TestSendRequiresActiveMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	msg, err := e.svc.Send(ctx, "a", "b", "  hello  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello" || msg.MatchID != e.matchID || msg.Read {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(e.notifier.sent) != 1 || e.notifier.sent[0].RecipientID != "b" {
		t.Fatalf("recipient must be notified: %+v", e.notifier.sent)
	}

	m, err := e.matches.GetByID(ctx, e.matchID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if !m.LastInteractionAt.Equal(msg.CreatedAt) {
		t.Fatalf("match must be touched: got %s want %s", m.LastInteractionAt, msg.CreatedAt)
	}

	if _, err := e.svc.Send(ctx, "a", "c", "hi"); !errors.Is(err, ErrNotMatched) {
		t.Fatalf("expected ErrNotMatched, got %v", err)
	}

	if _, err := e.matches.Unmatch(ctx, e.matchID, "b", time.Now()); err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if _, err := e.svc.Send(ctx, "a", "b", "still there?"); !errors.Is(err, ErrNotMatched) {
		t.Fatalf("expected ErrNotMatched after unmatch, got %v", err)
	}
}

func TestSendValidatesContent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.svc.Send(ctx, "a", "b", "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := e.svc.Send(ctx, "a", "b", strings.Repeat("x", MaxContentLength+1)); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
	if _, err := e.svc.Send(ctx, "a", "b", strings.Repeat("x", MaxContentLength)); err != nil {
		t.Fatalf("max length content must be accepted: %v", err)
	}
}

func TestSendRateLimited(t *testing.T) {
	e := newEnv(t)
	e.svc.rateLimiter = limiterStub{allowed: false}

	_, err := e.svc.Send(context.Background(), "a", "b", "hi")
	if tf, ok := rate.IsTooFast(err); !ok || tf.RetryAfter() != 3 {
		t.Fatalf("expected TooFastError with retry 3, got %v", err)
	}
}

func TestConversationReadAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.Send(ctx, "a", "b", "first")
	if err != nil {
		t.Fatalf("send first: %v", err)
	}
	if _, err := e.svc.Send(ctx, "b", "a", "second"); err != nil {
		t.Fatalf("send second: %v", err)
	}

	items, err := e.svc.Conversation(ctx, "b", "a")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(items) != 2 || items[0].Content != "first" || items[1].Content != "second" {
		t.Fatalf("unexpected conversation: %+v", items)
	}

	if _, err := e.svc.MarkRead(ctx, first.ID, "a"); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient, got %v", err)
	}
	read, err := e.svc.MarkRead(ctx, first.ID, "b")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.Read {
		t.Fatalf("message must be read")
	}

	if err := e.svc.Delete(ctx, first.ID, "b"); !errors.Is(err, ErrNotSender) {
		t.Fatalf("expected ErrNotSender, got %v", err)
	}
	if err := e.svc.Delete(ctx, first.ID, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.svc.MarkRead(ctx, first.ID, "b"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}

	items, err = e.svc.Conversation(ctx, "a", "b")
	if err != nil {
		t.Fatalf("conversation after delete: %v", err)
	}
	if len(items) != 1 || items[0].Content != "second" {
		t.Fatalf("unexpected conversation after delete: %+v", items)
	}
}

func TestSendFailedWriteReportsNothing(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantErr   error
	}{
		{name: "match ended during send", createErr: repo.ErrNotFound, wantErr: ErrNotMatched},
		{name: "storage failure", createErr: errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.svc.messages = failingMessages{MessageStore: e.svc.messages, err: tt.createErr}
			ctx := context.Background()

			before, err := e.matches.GetByID(ctx, e.matchID)
			if err != nil {
				t.Fatalf("get match: %v", err)
			}

			_, err = e.svc.Send(ctx, "a", "b", "hi")
			if err == nil {
				t.Fatalf("expected send to fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: got %v want %v", err, tt.wantErr)
			}
			if len(e.notifier.sent) != 0 {
				t.Fatalf("failed send must not notify: %+v", e.notifier.sent)
			}

			after, err := e.matches.GetByID(ctx, e.matchID)
			if err != nil {
				t.Fatalf("get match: %v", err)
			}
			if !after.LastInteractionAt.Equal(before.LastInteractionAt) {
				t.Fatalf("failed send must not touch the match: %s -> %s", before.LastInteractionAt, after.LastInteractionAt)
			}
		})
	}
}
