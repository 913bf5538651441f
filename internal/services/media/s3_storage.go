package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectKind is the folder an object lives in under its profile.
type ObjectKind string

const (
	KindPhoto        ObjectKind = "photos"
	KindVerification ObjectKind = "verification"
)

const profilesPrefix = "profiles/"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Object is one profile file ready to be written.
type Object struct {
	ProfileID   string
	Kind        ObjectKind
	ID          string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectKey lays objects out as profiles/<profile>/<kind>/<id><ext>.
// Only JPEG and PNG content is accepted.
func ObjectKey(profileID string, kind ObjectKind, id, contentType string) (string, error) {
	if strings.TrimSpace(profileID) == "" || strings.TrimSpace(id) == "" {
		return "", ErrValidation
	}
	if kind != KindPhoto && kind != KindVerification {
		return "", fmt.Errorf("unknown object kind %q: %w", kind, ErrValidation)
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return profilesPrefix + profileID + "/" + string(kind) + "/" + id + ext, nil
}

func supportedContentType(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

// S3Storage keeps profile photos and verification documents in one bucket.
type S3Storage struct {
	client *minio.Client
	bucket string

	mu      sync.Mutex
	ensured bool
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

// EnsureBucket creates the bucket on first use. A failed attempt is retried
// on the next call.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return ErrStorageUnavailable
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check s3 bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create s3 bucket %q: %w", s.bucket, err)
		}
	}
	s.ensured = true
	return nil
}

// Store writes obj under its profile and returns the object key.
func (s *S3Storage) Store(ctx context.Context, obj Object) (string, error) {
	if s.client == nil {
		return "", ErrStorageUnavailable
	}
	if obj.Body == nil || obj.Size <= 0 {
		return "", ErrValidation
	}
	if obj.Size > MaxUploadBytes {
		return "", ErrFileTooLarge
	}
	key, err := ObjectKey(obj.ProfileID, obj.Kind, obj.ID, obj.ContentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		CacheControl: "private, max-age=900",
		UserMetadata: map[string]string{
			"profile-id": obj.ProfileID,
			"kind":       string(obj.Kind),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s object: %w", obj.Kind, err)
	}
	return key, nil
}

// PresignGet signs an inline read URL for a key under the profiles prefix.
func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", ErrStorageUnavailable
	}
	if !strings.HasPrefix(key, profilesPrefix) {
		return "", fmt.Errorf("object key %q: %w", key, ErrValidation)
	}
	if ttl <= 0 {
		ttl = signedURLTTL
	}

	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return presigned.String(), nil
}

// Delete removes an object. Empty keys and a missing client are no-ops.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
