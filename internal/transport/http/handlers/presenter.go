package handlers

import (
	"context"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
)

type PhotoURLSigner interface {
	PhotoURL(ctx context.Context, key string) (string, error)
}

// Presenter turns stored profiles into response bodies with signed photo URLs.
type Presenter struct {
	photos PhotoURLSigner
}

func NewPresenter(photos PhotoURLSigner) Presenter {
	return Presenter{photos: photos}
}

func (p Presenter) Public(ctx context.Context, profile model.Profile) dto.PublicProfileResponse {
	pub := profile.Public()

	photos := make([]dto.PhotoResponse, 0, len(pub.Photos))
	for _, photo := range pub.Photos {
		photos = append(photos, dto.PhotoResponse{
			ID:         photo.ID,
			Name:       photo.Name,
			URL:        p.photoURL(ctx, photo.ObjectKey),
			IsPrimary:  photo.IsPrimary,
			UploadedAt: photo.UploadedAt,
		})
	}

	interests := pub.Interests
	if interests == nil {
		interests = []string{}
	}

	return dto.PublicProfileResponse{
		ID:          pub.ID,
		Name:        pub.Name,
		Age:         pub.Age,
		Gender:      pub.Gender,
		Location:    pub.Location,
		Bio:         pub.Bio,
		Interests:   interests,
		Preferences: pub.Preferences,
		Photos:      photos,
		CreatedAt:   pub.CreatedAt,
	}
}

func (p Presenter) Own(ctx context.Context, profile model.Profile) dto.ProfileResponse {
	likes := profile.Likes
	if likes == nil {
		likes = []string{}
	}
	matches := profile.Matches
	if matches == nil {
		matches = []string{}
	}

	return dto.ProfileResponse{
		PublicProfileResponse: p.Public(ctx, profile),
		AccountID:             profile.AccountID,
		Likes:                 likes,
		Matches:               matches,
		Verification: dto.VerificationResponse{
			Status:      profile.Verification.Status,
			SubmittedAt: profile.Verification.SubmittedAt,
			VerifiedAt:  profile.Verification.VerifiedAt,
		},
		Active:    profile.Active,
		UpdatedAt: profile.UpdatedAt,
	}
}

func (p Presenter) PublicList(ctx context.Context, profiles []model.Profile) []dto.PublicProfileResponse {
	out := make([]dto.PublicProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, p.Public(ctx, profile))
	}
	return out
}

func (p Presenter) photoURL(ctx context.Context, key string) string {
	if p.photos == nil || key == "" {
		return ""
	}
	url, err := p.photos.PhotoURL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}
