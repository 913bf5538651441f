package model

import (
	"slices"
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
)

type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Preferences struct {
	AgeRange         AgeRange       `json:"age_range"`
	MaxDistance      int            `json:"max_distance"`
	PreferredGenders []enums.Gender `json:"preferred_genders"`
}

type Photo struct {
	ID         string    `json:"id"`
	ObjectKey  string    `json:"object_key"`
	Name       string    `json:"name"`
	IsPrimary  bool      `json:"is_primary"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Verification struct {
	Status      enums.VerificationStatus `json:"status"`
	DocumentKey string                   `json:"document_key,omitempty"`
	SubmittedAt *time.Time               `json:"submitted_at,omitempty"`
	VerifiedAt  *time.Time               `json:"verified_at,omitempty"`
}

// Profile is the full stored record. Likes and Matches hold profile ids and
// are kept sorted without duplicates.
type Profile struct {
	ID           string       `json:"id"`
	AccountID    string       `json:"account_id"`
	Name         string       `json:"name"`
	Age          int          `json:"age"`
	Gender       enums.Gender `json:"gender"`
	Location     Location     `json:"location"`
	Bio          string       `json:"bio"`
	Interests    []string     `json:"interests"`
	Preferences  Preferences  `json:"preferences"`
	Photos       []Photo      `json:"photos"`
	Likes        []string     `json:"likes"`
	Matches      []string     `json:"matches"`
	Verification Verification `json:"verification"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (p Profile) HasLiked(profileID string) bool {
	_, found := slices.BinarySearch(p.Likes, profileID)
	return found
}

func (p Profile) HasMatched(profileID string) bool {
	_, found := slices.BinarySearch(p.Matches, profileID)
	return found
}

func (p *Profile) AddLike(profileID string) {
	p.Likes = insertSorted(p.Likes, profileID)
}

func (p *Profile) AddMatch(profileID string) {
	p.Matches = insertSorted(p.Matches, profileID)
}

func (p *Profile) RemoveMatch(profileID string) {
	if idx, found := slices.BinarySearch(p.Matches, profileID); found {
		p.Matches = slices.Delete(p.Matches, idx, idx+1)
	}
}

func (p Profile) PhotoByID(photoID string) (Photo, bool) {
	for _, photo := range p.Photos {
		if photo.ID == photoID {
			return photo, true
		}
	}
	return Photo{}, false
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Age         int          `json:"age"`
	Gender      enums.Gender `json:"gender"`
	Location    Location     `json:"location"`
	Bio         string       `json:"bio"`
	Interests   []string     `json:"interests"`
	Preferences Preferences  `json:"preferences"`
	Photos      []Photo      `json:"photos"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		Name:        p.Name,
		Age:         p.Age,
		Gender:      p.Gender,
		Location:    p.Location,
		Bio:         p.Bio,
		Interests:   slices.Clone(p.Interests),
		Preferences: p.Preferences,
		Photos:      slices.Clone(p.Photos),
		CreatedAt:   p.CreatedAt,
	}
}

func insertSorted(ids []string, id string) []string {
	idx, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, idx, id)
}
