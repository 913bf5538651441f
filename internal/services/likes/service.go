package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/infra/metrics"
	"github.com/ivankudzin/crush/internal/repo"
	"github.com/ivankudzin/crush/internal/services/rate"
)

var (
	ErrDependenciesNil = errors.New("likes service dependencies are nil")
	ErrSelfLike        = fmt.Errorf("you cannot like your own profile: %w", apperr.ErrValidation)
	ErrProfileNotFound = fmt.Errorf("profile not found: %w", apperr.ErrNotFound)
	ErrDuplicateLike   = fmt.Errorf("you have already liked this profile: %w", apperr.ErrValidation)
	ErrDuplicateMatch  = fmt.Errorf("match already exists: %w", apperr.ErrConflict)
)

type Outcome string

const (
	OutcomeLiked   Outcome = "liked"
	OutcomeMatched Outcome = "matched"
)

type RateLimiter interface {
	Allow(ctx context.Context, action rate.Action, subject string) (int64, bool, error)
}

// Notifier is told about a match after it has been committed.
type Notifier interface {
	MatchCreated(ctx context.Context, match model.Match, a, b model.Profile)
}

type Result struct {
	Outcome Outcome
	Target  model.Profile
	Match   *model.Match
}

func (r Result) Matched() bool {
	return r.Outcome == OutcomeMatched
}

type Deps struct {
	Graph       repo.PairTxRunner
	RateLimiter RateLimiter
	Notifier    Notifier
}

type Service struct {
	graph       repo.PairTxRunner
	rateLimiter RateLimiter
	notifier    Notifier
	now         func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{
		graph:       deps.Graph,
		rateLimiter: deps.RateLimiter,
		notifier:    deps.Notifier,
		now:         time.Now,
	}
}

// Like records likerID -> targetID. When the target already liked the liker
// the pair is matched in the same unit of work.
func (s *Service) Like(ctx context.Context, likerID, targetID string) (Result, error) {
	if s.graph == nil {
		return Result{}, ErrDependenciesNil
	}
	if likerID == targetID {
		return Result{}, ErrSelfLike
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, rate.ActionLike, likerID)
		if err != nil {
			return Result{}, fmt.Errorf("apply like rate limiter: %w", err)
		}
		if !allowed {
			metrics.Like("rate_limited")
			return Result{}, rate.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	var (
		result Result
		liker  model.Profile
	)
	err := s.graph.InPairTx(ctx, likerID, targetID, func(ctx context.Context, tx repo.PairTx) error {
		// the unit may be retried, so nothing carries over between attempts
		result = Result{}

		var err error
		liker, err = activeProfile(ctx, tx, likerID)
		if err != nil {
			return err
		}
		target, err := activeProfile(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if liker.HasLiked(targetID) {
			return ErrDuplicateLike
		}

		now := s.now().UTC()
		if err := tx.AddLike(ctx, likerID, targetID, now); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateLike
			}
			return fmt.Errorf("add like: %w", err)
		}
		liker.AddLike(targetID)

		result = Result{Outcome: OutcomeLiked, Target: target}
		if !target.HasLiked(likerID) {
			return nil
		}

		a, b := model.OrderedPair(likerID, targetID)
		match := model.Match{
			ID:                uuid.NewString(),
			UserAID:           a,
			UserBID:           b,
			Status:            enums.MatchStatusActive,
			CreatedAt:         now,
			LastInteractionAt: now,
		}
		if err := tx.CreateMatch(ctx, match); err != nil {
			if errors.Is(err, repo.ErrDuplicateMatch) {
				return ErrDuplicateMatch
			}
			return fmt.Errorf("create match: %w", err)
		}
		if err := tx.LinkMatch(ctx, likerID, targetID); err != nil {
			return fmt.Errorf("link match: %w", err)
		}
		liker.AddMatch(targetID)
		result.Target.AddMatch(likerID)

		result.Outcome = OutcomeMatched
		result.Match = &match
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateLike):
			metrics.Like("duplicate")
		case errors.Is(err, ErrDuplicateMatch):
			metrics.Like("duplicate_match")
		}
		return Result{}, err
	}

	metrics.Like(string(result.Outcome))
	if result.Matched() {
		metrics.MatchCreated()
		if s.notifier != nil {
			s.notifier.MatchCreated(ctx, *result.Match, liker, result.Target)
		}
	}
	return result, nil
}

func activeProfile(ctx context.Context, tx repo.PairTx, id string) (model.Profile, error) {
	profile, err := tx.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("load profile %s: %w", id, err)
	}
	if !profile.Active {
		return model.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}
