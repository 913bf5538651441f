package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

const profileSelect = `
SELECT
	p.id,
	p.account_id,
	p.name,
	p.age,
	p.gender,
	p.city,
	p.state,
	p.latitude,
	p.longitude,
	p.bio,
	p.interests,
	p.pref_age_min,
	p.pref_age_max,
	p.pref_max_distance,
	p.preferred_genders,
	p.photos,
	p.verification,
	p.active,
	p.created_at,
	p.updated_at,
	ARRAY(SELECT l.to_id FROM profile_likes l WHERE l.from_id = p.id),
	ARRAY(SELECT m.counterpart_id FROM profile_matches m WHERE m.profile_id = p.id)
FROM profiles p
`

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, profile model.Profile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (
	id,
	account_id,
	name,
	age,
	gender,
	city,
	state,
	latitude,
	longitude,
	bio,
	interests,
	pref_age_min,
	pref_age_max,
	pref_max_distance,
	preferred_genders,
	photos,
	verification,
	active,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
`, profileArgs(profile)...)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update writes the owner editable columns. Likes and matches are only
// changed through the pair transaction and the unmatch path.
func (r *ProfileRepo) Update(ctx context.Context, profile model.Profile) error {
	args := profileArgs(profile)
	args = append(args[:18], profile.UpdatedAt.UTC())
	result, err := r.pool.Exec(ctx, `
UPDATE profiles SET
	name = $3,
	age = $4,
	gender = $5,
	city = $6,
	state = $7,
	latitude = $8,
	longitude = $9,
	bio = $10,
	interests = $11,
	pref_age_min = $12,
	pref_age_max = $13,
	pref_max_distance = $14,
	preferred_genders = $15,
	photos = $16,
	verification = $17,
	active = $18,
	updated_at = $19
WHERE id = $1 AND account_id = $2
`, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.Profile, error) {
	return getProfile(ctx, r.pool, `WHERE p.id = $1`, id)
}

func (r *ProfileRepo) GetByAccountID(ctx context.Context, accountID string) (model.Profile, error) {
	return getProfile(ctx, r.pool, `WHERE p.account_id = $1`, accountID)
}

func (r *ProfileRepo) GetMany(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	items := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	rows, err := r.pool.Query(ctx, profileSelect+`WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		items[profile.ID] = profile
	}
	return items, nil
}

func (r *ProfileRepo) ListCandidates(ctx context.Context, q repo.CandidateQuery) ([]model.Profile, error) {
	rows, err := r.pool.Query(ctx, profileSelect+`
WHERE
	p.active
	AND p.id <> $1
	AND ($2 = 0 OR p.age >= $2)
	AND ($3 = 0 OR p.age <= $3)
	AND ($4 = '' OR p.gender = $4)
	AND (NOT $5 OR p.latitude BETWEEN $6 AND $7)
	AND NOT EXISTS (SELECT 1 FROM profile_likes l WHERE l.from_id = $1 AND l.to_id = p.id)
	AND NOT EXISTS (SELECT 1 FROM profile_matches m WHERE m.profile_id = $1 AND m.counterpart_id = p.id)
ORDER BY p.created_at ASC, p.id ASC
`, q.ExcludeID, q.AgeMin, q.AgeMax, q.Gender, q.UseLat, q.LatMin, q.LatMax)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return collectProfiles(rows)
}

func getProfile(ctx context.Context, q querier, where string, arg string) (model.Profile, error) {
	profile, err := scanProfile(q.QueryRow(ctx, profileSelect+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, repo.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func collectProfiles(rows pgx.Rows) ([]model.Profile, error) {
	defer rows.Close()

	items := make([]model.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, profile)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate profiles: %w", rows.Err())
	}
	return items, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		profile          model.Profile
		gender           string
		preferredGenders []string
	)
	err := row.Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.Name,
		&profile.Age,
		&gender,
		&profile.Location.City,
		&profile.Location.State,
		&profile.Location.Latitude,
		&profile.Location.Longitude,
		&profile.Bio,
		&profile.Interests,
		&profile.Preferences.AgeRange.Min,
		&profile.Preferences.AgeRange.Max,
		&profile.Preferences.MaxDistance,
		&preferredGenders,
		&profile.Photos,
		&profile.Verification,
		&profile.Active,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&profile.Likes,
		&profile.Matches,
	)
	if err != nil {
		return model.Profile{}, err
	}

	profile.Gender = enums.Gender(gender)
	profile.Preferences.PreferredGenders = make([]enums.Gender, 0, len(preferredGenders))
	for _, g := range preferredGenders {
		profile.Preferences.PreferredGenders = append(profile.Preferences.PreferredGenders, enums.Gender(g))
	}
	slices.Sort(profile.Likes)
	slices.Sort(profile.Matches)

	return profile, nil
}

func profileArgs(p model.Profile) []any {
	preferredGenders := make([]string, 0, len(p.Preferences.PreferredGenders))
	for _, g := range p.Preferences.PreferredGenders {
		preferredGenders = append(preferredGenders, string(g))
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	photos := p.Photos
	if photos == nil {
		photos = []model.Photo{}
	}

	return []any{
		p.ID,
		p.AccountID,
		p.Name,
		p.Age,
		string(p.Gender),
		p.Location.City,
		p.Location.State,
		p.Location.Latitude,
		p.Location.Longitude,
		p.Bio,
		interests,
		p.Preferences.AgeRange.Min,
		p.Preferences.AgeRange.Max,
		p.Preferences.MaxDistance,
		preferredGenders,
		photos,
		p.Verification,
		p.Active,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	}
}
