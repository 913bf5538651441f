package dto

import (
	"time"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
)

type LocationRequest struct {
	City      string   `json:"city" validate:"max=100"`
	State     string   `json:"state" validate:"max=100"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type AgeRangeRequest struct {
	Min int `json:"min" validate:"gte=18,lte=100"`
	Max int `json:"max" validate:"gte=18,lte=100"`
}

type PreferencesRequest struct {
	AgeRange         *AgeRangeRequest `json:"age_range"`
	MaxDistance      *int             `json:"max_distance" validate:"omitempty,gte=1,lte=500"`
	PreferredGenders []string         `json:"preferred_genders" validate:"omitempty,dive,oneof=male female other"`
}

type ProfileRequest struct {
	Name        string              `json:"name" validate:"required,max=100"`
	Age         int                 `json:"age" validate:"required,gte=18,lte=100"`
	Gender      string              `json:"gender" validate:"required,oneof=male female other"`
	Location    LocationRequest     `json:"location"`
	Bio         string              `json:"bio" validate:"max=500"`
	Interests   []string            `json:"interests" validate:"max=10"`
	Preferences *PreferencesRequest `json:"preferences"`
}

type BioRequest struct {
	Bio string `json:"bio" validate:"max=500"`
}

type InterestsRequest struct {
	Interests []string `json:"interests" validate:"required,min=1,max=10"`
}

type PhotoResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url,omitempty"`
	IsPrimary  bool      `json:"is_primary"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PublicProfileResponse is the view shown to other users.
type PublicProfileResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Age         int               `json:"age"`
	Gender      enums.Gender      `json:"gender"`
	Location    model.Location    `json:"location"`
	Bio         string            `json:"bio"`
	Interests   []string          `json:"interests"`
	Preferences model.Preferences `json:"preferences"`
	Photos      []PhotoResponse   `json:"photos"`
	CreatedAt   time.Time         `json:"created_at"`
}

type VerificationResponse struct {
	Status      enums.VerificationStatus `json:"status"`
	SubmittedAt *time.Time               `json:"submitted_at,omitempty"`
	VerifiedAt  *time.Time               `json:"verified_at,omitempty"`
}

// ProfileResponse is the owner's view of their profile.
type ProfileResponse struct {
	PublicProfileResponse
	AccountID    string               `json:"account_id"`
	Likes        []string             `json:"likes"`
	Matches      []string             `json:"matches"`
	Verification VerificationResponse `json:"verification"`
	Active       bool                 `json:"active"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
