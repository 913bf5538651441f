package profiles

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/domain/rules"
	"github.com/ivankudzin/crush/internal/repo"
)

const (
	MaxBioLength      = 500
	MaxInterests      = 10
	maxInterestLength = 50
	maxNameLength     = 100
)

var (
	ErrValidation      = fmt.Errorf("invalid profile: %w", apperr.ErrValidation)
	ErrProfileNotFound = fmt.Errorf("profile not found: %w", apperr.ErrNotFound)
	ErrProfileExists   = fmt.Errorf("profile already exists for this user: %w", apperr.ErrValidation)
	ErrNotOwner        = fmt.Errorf("not authorized to update this profile: %w", apperr.ErrForbidden)
)

type ProfileStore interface {
	Create(ctx context.Context, profile model.Profile) error
	Update(ctx context.Context, profile model.Profile) error
	GetByID(ctx context.Context, id string) (model.Profile, error)
	GetByAccountID(ctx context.Context, accountID string) (model.Profile, error)
}

type Config struct {
	DefaultMaxDistanceKM int
}

type Service struct {
	store ProfileStore
	cfg   Config
	now   func() time.Time
}

type Input struct {
	Name        string
	Age         int
	Gender      enums.Gender
	Location    model.Location
	Bio         string
	Interests   []string
	Preferences *PreferencesInput
}

// PreferencesInput is a partial update. Nil fields keep the stored value.
type PreferencesInput struct {
	AgeRange         *model.AgeRange
	MaxDistance      *int
	PreferredGenders []enums.Gender
}

func NewService(store ProfileStore, cfg Config) *Service {
	if cfg.DefaultMaxDistanceKM <= 0 {
		cfg.DefaultMaxDistanceKM = 50
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) Create(ctx context.Context, accountID string, in Input) (model.Profile, error) {
	if strings.TrimSpace(accountID) == "" {
		return model.Profile{}, fmt.Errorf("account id is required: %w", ErrValidation)
	}

	now := s.now().UTC()
	profile := model.Profile{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Preferences: model.Preferences{
			AgeRange:         model.AgeRange{Min: rules.MinAge, Max: rules.MaxAge},
			MaxDistance:      s.cfg.DefaultMaxDistanceKM,
			PreferredGenders: []enums.Gender{},
		},
		Photos:       []model.Photo{},
		Likes:        []string{},
		Matches:      []string{},
		Verification: model.Verification{Status: enums.VerificationUnverified},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := applyInput(&profile, in); err != nil {
		return model.Profile{}, err
	}

	if err := s.store.Create(ctx, profile); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return model.Profile{}, ErrProfileExists
		}
		return model.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	return profile, nil
}

// Mine returns the caller's own profile, including a deactivated one.
func (s *Service) Mine(ctx context.Context, accountID string) (model.Profile, error) {
	profile, err := s.store.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get own profile: %w", err)
	}
	return profile, nil
}

// Active returns the caller's profile only when it takes part in matching.
func (s *Service) Active(ctx context.Context, accountID string) (model.Profile, error) {
	profile, err := s.Mine(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	if !profile.Active {
		return model.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Profile, error) {
	profile, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !profile.Active {
		return model.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, accountID, profileID string, in Input) (model.Profile, error) {
	profile, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if profile.AccountID != accountID {
		return model.Profile{}, ErrNotOwner
	}

	if err := applyInput(&profile, in); err != nil {
		return model.Profile{}, err
	}
	return s.save(ctx, profile)
}

func (s *Service) UpdateBio(ctx context.Context, accountID, bio string) (model.Profile, error) {
	return s.mutate(ctx, accountID, func(p *model.Profile) error {
		bio = strings.TrimSpace(bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return fmt.Errorf("bio cannot exceed %d characters: %w", MaxBioLength, ErrValidation)
		}
		p.Bio = bio
		return nil
	})
}

// AddInterests merges values into the interest set.
func (s *Service) AddInterests(ctx context.Context, accountID string, interests []string) (model.Profile, error) {
	return s.mutate(ctx, accountID, func(p *model.Profile) error {
		merged, err := normalizeInterests(append(slices.Clone(p.Interests), interests...))
		if err != nil {
			return err
		}
		p.Interests = merged
		return nil
	})
}

func (s *Service) RemoveInterests(ctx context.Context, accountID string, interests []string) (model.Profile, error) {
	return s.mutate(ctx, accountID, func(p *model.Profile) error {
		drop := make(map[string]struct{}, len(interests))
		for _, v := range interests {
			drop[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
		}
		p.Interests = slices.DeleteFunc(p.Interests, func(v string) bool {
			_, ok := drop[v]
			return ok
		})
		return nil
	})
}

func (s *Service) UpdatePreferences(ctx context.Context, accountID string, in PreferencesInput) (model.Profile, error) {
	return s.mutate(ctx, accountID, func(p *model.Profile) error {
		return mergePreferences(&p.Preferences, in)
	})
}

// Deactivate hides the profile from discovery and likes. Records are kept.
func (s *Service) Deactivate(ctx context.Context, accountID string) error {
	_, err := s.mutate(ctx, accountID, func(p *model.Profile) error {
		p.Active = false
		return nil
	})
	return err
}

func (s *Service) mutate(ctx context.Context, accountID string, fn func(*model.Profile) error) (model.Profile, error) {
	profile, err := s.Mine(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	if err := fn(&profile); err != nil {
		return model.Profile{}, err
	}
	return s.save(ctx, profile)
}

func (s *Service) save(ctx context.Context, profile model.Profile) (model.Profile, error) {
	profile.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, profile); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func applyInput(p *model.Profile, in Input) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name is required and must be at most %d characters: %w", maxNameLength, ErrValidation)
	}
	if in.Age < rules.MinAge || in.Age > rules.MaxAge {
		return fmt.Errorf("age must be between %d and %d: %w", rules.MinAge, rules.MaxAge, ErrValidation)
	}
	if !in.Gender.Valid() {
		return fmt.Errorf("gender %q is not supported: %w", in.Gender, ErrValidation)
	}
	if err := rules.ValidateCoordinates(in.Location.Latitude, in.Location.Longitude); err != nil {
		return err
	}
	bio := strings.TrimSpace(in.Bio)
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio cannot exceed %d characters: %w", MaxBioLength, ErrValidation)
	}
	interests, err := normalizeInterests(in.Interests)
	if err != nil {
		return err
	}

	p.Name = name
	p.Age = in.Age
	p.Gender = in.Gender
	p.Location = model.Location{
		City:      strings.TrimSpace(in.Location.City),
		State:     strings.TrimSpace(in.Location.State),
		Latitude:  in.Location.Latitude,
		Longitude: in.Location.Longitude,
	}
	p.Bio = bio
	p.Interests = interests

	if in.Preferences != nil {
		return mergePreferences(&p.Preferences, *in.Preferences)
	}
	return nil
}

func mergePreferences(current *model.Preferences, in PreferencesInput) error {
	next := *current
	if in.AgeRange != nil {
		if err := rules.ValidateAgeRange(*in.AgeRange); err != nil {
			return err
		}
		next.AgeRange = *in.AgeRange
	}
	if in.MaxDistance != nil {
		if err := rules.ValidateMaxDistance(*in.MaxDistance); err != nil {
			return err
		}
		next.MaxDistance = *in.MaxDistance
	}
	if in.PreferredGenders != nil {
		genders := make([]enums.Gender, 0, len(in.PreferredGenders))
		for _, g := range in.PreferredGenders {
			if !g.Valid() {
				return fmt.Errorf("preferred gender %q is not supported: %w", g, ErrValidation)
			}
			if !slices.Contains(genders, g) {
				genders = append(genders, g)
			}
		}
		next.PreferredGenders = genders
	}

	*current = next
	return nil
}

// normalizeInterests lower-cases, trims and de-duplicates while keeping order.
func normalizeInterests(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		if utf8.RuneCountInString(v) > maxInterestLength {
			return nil, fmt.Errorf("interest %q is too long: %w", v, ErrValidation)
		}
		out = append(out, v)
	}
	if len(out) > MaxInterests {
		return nil, fmt.Errorf("at most %d interests allowed: %w", MaxInterests, ErrValidation)
	}
	return out, nil
}
