package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
)

const (
	MinAge = 18
	MaxAge = 100

	MinDistanceKM = 1
	MaxDistanceKM = 500
)

var ErrInvalidFilter = fmt.Errorf("invalid filter: %w", apperr.ErrValidation)

// RawFilter carries the query parameters as received. Empty means absent.
type RawFilter struct {
	AgeRange    string
	MaxDistance string
	Gender      string
}

// CandidateFilter is a resolved filter. Zero bounds disable the predicate;
// explicit age ranges never resolve to zero.
type CandidateFilter struct {
	AgeMin        int
	AgeMax        int
	MaxDistanceKM int
	Gender        enums.Gender
}

// ResolveFilter parses explicit parameters and fills absent ones from the
// viewer's stored preferences, then from defaultRadiusKM for distance.
func ResolveFilter(raw RawFilter, viewer model.Profile, defaultRadiusKM int) (CandidateFilter, error) {
	var filter CandidateFilter

	if value := strings.TrimSpace(raw.AgeRange); value != "" {
		ageRange, err := ParseAgeRange(value)
		if err != nil {
			return CandidateFilter{}, err
		}
		filter.AgeMin, filter.AgeMax = ageRange.Min, ageRange.Max
	} else {
		filter.AgeMin = viewer.Preferences.AgeRange.Min
		filter.AgeMax = viewer.Preferences.AgeRange.Max
	}

	if value := strings.TrimSpace(raw.MaxDistance); value != "" {
		distance, err := ParseMaxDistance(value)
		if err != nil {
			return CandidateFilter{}, err
		}
		filter.MaxDistanceKM = distance
	} else {
		filter.MaxDistanceKM = viewer.Preferences.MaxDistance
		if filter.MaxDistanceKM <= 0 {
			filter.MaxDistanceKM = defaultRadiusKM
		}
	}

	if value := strings.TrimSpace(raw.Gender); value != "" {
		filter.Gender = enums.Gender(value)
	} else if len(viewer.Preferences.PreferredGenders) == 1 {
		filter.Gender = viewer.Preferences.PreferredGenders[0]
	}

	return filter, nil
}

func ParseAgeRange(value string) (model.AgeRange, error) {
	minPart, maxPart, ok := strings.Cut(value, "-")
	if !ok {
		return model.AgeRange{}, fmt.Errorf("age range %q must be MIN-MAX: %w", value, ErrInvalidFilter)
	}
	ageMin, err := strconv.Atoi(strings.TrimSpace(minPart))
	if err != nil {
		return model.AgeRange{}, fmt.Errorf("age range min %q: %w", minPart, ErrInvalidFilter)
	}
	ageMax, err := strconv.Atoi(strings.TrimSpace(maxPart))
	if err != nil {
		return model.AgeRange{}, fmt.Errorf("age range max %q: %w", maxPart, ErrInvalidFilter)
	}
	if ageMin < MinAge || ageMax > MaxAge || ageMin > ageMax {
		return model.AgeRange{}, fmt.Errorf("age range %d-%d must lie within %d-%d: %w", ageMin, ageMax, MinAge, MaxAge, ErrInvalidFilter)
	}
	return model.AgeRange{Min: ageMin, Max: ageMax}, nil
}

func ParseMaxDistance(value string) (int, error) {
	distance, err := strconv.Atoi(value)
	if err != nil || distance <= 0 {
		return 0, fmt.Errorf("max distance %q: %w", value, ErrInvalidFilter)
	}
	return distance, nil
}

// Eligible reports whether candidate may be shown to viewer at all.
func Eligible(viewer, candidate model.Profile) bool {
	if candidate.ID == viewer.ID || !candidate.Active {
		return false
	}
	return !viewer.HasLiked(candidate.ID) && !viewer.HasMatched(candidate.ID)
}

// Admits applies the filter predicates. box is ignored when the filter has no distance.
func (f CandidateFilter) Admits(candidate model.Profile, box BoundingBox) bool {
	if f.AgeMin > 0 && candidate.Age < f.AgeMin {
		return false
	}
	if f.AgeMax > 0 && candidate.Age > f.AgeMax {
		return false
	}
	if f.Gender != "" && candidate.Gender != f.Gender {
		return false
	}
	if f.MaxDistanceKM > 0 && !box.Contains(candidate.Location.Latitude, candidate.Location.Longitude) {
		return false
	}
	return true
}

func ValidateAgeRange(r model.AgeRange) error {
	if r.Min < MinAge || r.Max > MaxAge || r.Min > r.Max {
		return fmt.Errorf("age range must satisfy %d <= min <= max <= %d: %w", MinAge, MaxAge, apperr.ErrValidation)
	}
	return nil
}

func ValidateMaxDistance(km int) error {
	if km < MinDistanceKM || km > MaxDistanceKM {
		return fmt.Errorf("max distance must be within %d-%d km: %w", MinDistanceKM, MaxDistanceKM, apperr.ErrValidation)
	}
	return nil
}
