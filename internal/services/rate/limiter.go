package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Action string

const (
	ActionLike    Action = "likes"
	ActionMessage Action = "messages"
)

var ErrInvalidSubject = errors.New("rate limit subject is required")

// TooFastError rejects an action until RetryAfterSec has passed.
type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Window allows Limit actions per Period. A zero limit disables the window.
type Window struct {
	Limit  int
	Period time.Duration
}

type Limiter struct {
	store   WindowStore
	windows map[Action][]Window
}

func NewLimiter(store WindowStore, windows map[Action][]Window) *Limiter {
	active := make(map[Action][]Window, len(windows))
	for action, list := range windows {
		for _, w := range list {
			if w.Limit > 0 && w.Period > 0 {
				active[action] = append(active[action], w)
			}
		}
	}

	return &Limiter{
		store:   store,
		windows: active,
	}
}

// Allow counts one action for subject in every window of the action and
// reports the longest wait when any window is exceeded.
func (l *Limiter) Allow(ctx context.Context, action Action, subject string) (int64, bool, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, false, ErrInvalidSubject
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows[action] {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(action, w, subject), w.Period)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports the current wait without counting an action.
func (l *Limiter) RetryAfter(ctx context.Context, action Action, subject string) (int64, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, ErrInvalidSubject
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows[action] {
		count, ttl, err := l.store.WindowState(ctx, windowKey(action, w, subject))
		if err != nil {
			return 0, err
		}
		if count >= int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func windowKey(action Action, w Window, subject string) string {
	return "rate:" + string(action) + ":" + strconv.FormatInt(int64(w.Period/time.Second), 10) + "s:" + subject
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
