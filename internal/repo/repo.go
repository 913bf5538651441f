// Package repo holds what the storage backends share: lookup errors, the
// candidate prefilter query and the per-pair transaction used by likes.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/ivankudzin/crush/internal/domain/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrDuplicateMatch = errors.New("active match already exists for pair")
)

// CandidateQuery is a coarse prefilter. Backends may return extra rows; the
// caller applies the exact predicates. Zero values disable a bound.
type CandidateQuery struct {
	ExcludeID string
	AgeMin    int
	AgeMax    int
	Gender    string
	LatMin    float64
	LatMax    float64
	UseLat    bool
}

// PairTx exposes the writes a like may perform. Every call runs inside one
// atomic unit that is serialized against other units for the same pair.
type PairTx interface {
	Profile(ctx context.Context, id string) (model.Profile, error)
	AddLike(ctx context.Context, fromID, toID string, at time.Time) error
	LinkMatch(ctx context.Context, a, b string) error
	CreateMatch(ctx context.Context, m model.Match) error
}

type PairTxRunner interface {
	InPairTx(ctx context.Context, a, b string, fn func(context.Context, PairTx) error) error
}
