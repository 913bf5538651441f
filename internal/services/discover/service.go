package discover

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/domain/rules"
	"github.com/ivankudzin/crush/internal/infra/metrics"
	"github.com/ivankudzin/crush/internal/repo"
)

var ErrInvalidFilter = rules.ErrInvalidFilter

type Repository interface {
	ListCandidates(ctx context.Context, q repo.CandidateQuery) ([]model.Profile, error)
}

type Config struct {
	DefaultRadiusKM int
	// MaxResults caps the response. Zero returns every candidate.
	MaxResults int
}

type Service struct {
	repo Repository
	cfg  Config
}

func NewService(repo Repository, cfg Config) *Service {
	if cfg.DefaultRadiusKM <= 0 {
		cfg.DefaultRadiusKM = 50
	}
	if cfg.MaxResults < 0 {
		cfg.MaxResults = 0
	}

	return &Service{
		repo: repo,
		cfg:  cfg,
	}
}

// FindCandidates lists profiles the viewer may swipe on, ordered by creation
// time then id.
func (s *Service) FindCandidates(ctx context.Context, viewer model.Profile, raw rules.RawFilter) ([]model.Profile, error) {
	filter, err := rules.ResolveFilter(raw, viewer, s.cfg.DefaultRadiusKM)
	if err != nil {
		return nil, err
	}

	box := rules.NewBoundingBox(viewer.Location.Latitude, viewer.Location.Longitude, float64(filter.MaxDistanceKM))
	query := repo.CandidateQuery{
		ExcludeID: viewer.ID,
		AgeMin:    filter.AgeMin,
		AgeMax:    filter.AgeMax,
		Gender:    string(filter.Gender),
	}
	if filter.MaxDistanceKM > 0 {
		query.LatMin, query.LatMax = box.LatRange()
		query.UseLat = true
	}

	rows, err := s.repo.ListCandidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]model.Profile, 0, len(rows))
	for _, candidate := range rows {
		if !rules.Eligible(viewer, candidate) || !filter.Admits(candidate, box) {
			continue
		}
		out = append(out, candidate)
	}

	slices.SortFunc(out, func(a, b model.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if s.cfg.MaxResults > 0 && len(out) > s.cfg.MaxResults {
		out = out[:s.cfg.MaxResults]
	}

	metrics.CandidatesReturned(len(out))
	return out, nil
}
