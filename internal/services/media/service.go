package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

const (
	MaxPhotos       = 6
	MaxUploadBytes  = 5 << 20
	signedURLTTL    = 15 * time.Minute
	sniffHeaderSize = 512
)

var (
	ErrValidation          = fmt.Errorf("invalid upload: %w", apperr.ErrValidation)
	ErrNoFiles             = fmt.Errorf("please upload at least one file: %w", apperr.ErrValidation)
	ErrUnsupportedType     = fmt.Errorf("only JPEG and PNG images are allowed: %w", apperr.ErrValidation)
	ErrFileTooLarge        = fmt.Errorf("file exceeds 5MB: %w", apperr.ErrValidation)
	ErrPhotoLimitReached   = fmt.Errorf("maximum %d photos allowed: %w", MaxPhotos, apperr.ErrValidation)
	ErrPhotoNotFound       = fmt.Errorf("photo not found: %w", apperr.ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("profile not found: %w", apperr.ErrNotFound)
	ErrVerificationPending = fmt.Errorf("verification request already pending: %w", apperr.ErrValidation)
	ErrStorageUnavailable  = errors.New("object storage is not configured")
)

type ProfileStore interface {
	GetByAccountID(ctx context.Context, accountID string) (model.Profile, error)
	Update(ctx context.Context, profile model.Profile) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Store(ctx context.Context, obj Object) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is one received file. Size is the declared length of Body.
type Upload struct {
	FileName string
	Size     int64
	Body     io.Reader
}

type Service struct {
	profiles ProfileStore
	storage  ObjectStorage
	now      func() time.Time
}

func NewService(profiles ProfileStore, storage ObjectStorage) *Service {
	return &Service{
		profiles: profiles,
		storage:  storage,
		now:      time.Now,
	}
}

// UploadPhotos stores the files and appends them to the caller's gallery.
// The first photo of an empty gallery becomes primary.
func (s *Service) UploadPhotos(ctx context.Context, accountID string, files []Upload) (model.Profile, error) {
	if len(files) == 0 {
		return model.Profile{}, ErrNoFiles
	}
	if s.storage == nil {
		return model.Profile{}, ErrStorageUnavailable
	}

	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	if len(profile.Photos)+len(files) > MaxPhotos {
		return model.Profile{}, ErrPhotoLimitReached
	}

	prepared := make([]sniffed, 0, len(files))
	for _, f := range files {
		item, err := sniff(f)
		if err != nil {
			return model.Profile{}, err
		}
		prepared = append(prepared, item)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.Profile{}, fmt.Errorf("ensure bucket: %w", err)
	}

	now := s.now().UTC()
	stored := make([]string, 0, len(prepared))
	for _, item := range prepared {
		photoID := uuid.NewString()
		key, err := s.storage.Store(ctx, item.object(profile.ID, KindPhoto, photoID))
		if err != nil {
			s.cleanup(ctx, stored)
			return model.Profile{}, fmt.Errorf("put photo: %w", err)
		}
		stored = append(stored, key)

		profile.Photos = append(profile.Photos, model.Photo{
			ID:         photoID,
			ObjectKey:  key,
			Name:       item.name,
			IsPrimary:  len(profile.Photos) == 0,
			UploadedAt: now,
		})
	}

	profile.UpdatedAt = now
	if err := s.profiles.Update(ctx, profile); err != nil {
		s.cleanup(ctx, stored)
		return model.Profile{}, fmt.Errorf("save photos: %w", err)
	}

	return profile, nil
}

func (s *Service) SetPrimaryPhoto(ctx context.Context, accountID, photoID string) (model.Profile, error) {
	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	if _, ok := profile.PhotoByID(photoID); !ok {
		return model.Profile{}, ErrPhotoNotFound
	}

	for i := range profile.Photos {
		profile.Photos[i].IsPrimary = profile.Photos[i].ID == photoID
	}
	return s.save(ctx, profile)
}

// DeletePhoto removes the photo and its object. When the primary photo goes,
// the oldest remaining photo is promoted.
func (s *Service) DeletePhoto(ctx context.Context, accountID, photoID string) (model.Profile, error) {
	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	photo, ok := profile.PhotoByID(photoID)
	if !ok {
		return model.Profile{}, ErrPhotoNotFound
	}

	kept := make([]model.Photo, 0, len(profile.Photos)-1)
	for _, p := range profile.Photos {
		if p.ID != photoID {
			kept = append(kept, p)
		}
	}
	if photo.IsPrimary && len(kept) > 0 {
		kept[0].IsPrimary = true
	}
	profile.Photos = kept

	updated, err := s.save(ctx, profile)
	if err != nil {
		return model.Profile{}, err
	}
	if s.storage != nil {
		if err := s.storage.Delete(ctx, photo.ObjectKey); err != nil {
			return model.Profile{}, fmt.Errorf("delete photo object: %w", err)
		}
	}
	return updated, nil
}

// SubmitVerification stores the document and marks the request pending.
func (s *Service) SubmitVerification(ctx context.Context, accountID string, doc Upload) (model.Profile, error) {
	if doc.Body == nil {
		return model.Profile{}, ErrNoFiles
	}
	if s.storage == nil {
		return model.Profile{}, ErrStorageUnavailable
	}

	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return model.Profile{}, err
	}
	if profile.Verification.Status == enums.VerificationPending {
		return model.Profile{}, ErrVerificationPending
	}

	item, err := sniff(doc)
	if err != nil {
		return model.Profile{}, err
	}
	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.Profile{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key, err := s.storage.Store(ctx, item.object(profile.ID, KindVerification, uuid.NewString()))
	if err != nil {
		return model.Profile{}, fmt.Errorf("put verification document: %w", err)
	}

	submittedAt := s.now().UTC()
	profile.Verification = model.Verification{
		Status:      enums.VerificationPending,
		DocumentKey: key,
		SubmittedAt: &submittedAt,
	}
	return s.save(ctx, profile)
}

// PhotoURL presigns a read URL. Without storage it returns an empty string.
func (s *Service) PhotoURL(ctx context.Context, key string) (string, error) {
	if s.storage == nil || key == "" {
		return "", nil
	}
	return s.storage.PresignGet(ctx, key, signedURLTTL)
}

func (s *Service) profile(ctx context.Context, accountID string) (model.Profile, error) {
	profile, err := s.profiles.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *Service) save(ctx context.Context, profile model.Profile) (model.Profile, error) {
	profile.UpdatedAt = s.now().UTC()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *Service) cleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		_ = s.storage.Delete(ctx, key)
	}
}

type sniffed struct {
	name        string
	contentType string
	size        int64
	body        io.Reader
}

func (f sniffed) object(profileID string, kind ObjectKind, id string) Object {
	return Object{
		ProfileID:   profileID,
		Kind:        kind,
		ID:          id,
		ContentType: f.contentType,
		Size:        f.size,
		Body:        f.body,
	}
}

// sniff checks size and detects the type from the leading bytes, ignoring
// any client supplied content type.
func sniff(f Upload) (sniffed, error) {
	if f.Body == nil || f.Size <= 0 {
		return sniffed{}, ErrValidation
	}
	if f.Size > MaxUploadBytes {
		return sniffed{}, ErrFileTooLarge
	}

	head := make([]byte, sniffHeaderSize)
	n, err := io.ReadFull(f.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return sniffed{}, fmt.Errorf("read upload header: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !supportedContentType(contentType) {
		return sniffed{}, ErrUnsupportedType
	}

	return sniffed{
		name:        f.FileName,
		contentType: contentType,
		size:        f.Size,
		body:        io.MultiReader(bytes.NewReader(head), f.Body),
	}, nil
}
