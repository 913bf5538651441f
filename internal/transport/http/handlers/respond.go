package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/pkg/validate"
	authsvc "github.com/ivankudzin/crush/internal/services/auth"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

const maxJSONBody = 1 << 20

var (
	errInvalidBody  = fmt.Errorf("invalid request body: %w", apperr.ErrValidation)
	errUnauthorized = fmt.Errorf("authentication required: %w", apperr.ErrUnauthenticated)
	errUnavailable  = errors.New("service is unavailable")
)

// CallerProfiles resolves the caller's active profile.
type CallerProfiles interface {
	Active(ctx context.Context, accountID string) (model.Profile, error)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeRequest reads a JSON body into target and runs its validate tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := decodeJSON(r, target); err != nil {
		return errInvalidBody
	}
	return validate.Struct(target)
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	mapped := httperrors.WriteError(w, err)
	if mapped.Internal() && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
}

func identity(r *http.Request) (authsvc.Identity, error) {
	id, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		return authsvc.Identity{}, errUnauthorized
	}
	return id, nil
}

// callerProfile returns the active profile of the authenticated account.
func callerProfile(r *http.Request, profiles CallerProfiles) (model.Profile, error) {
	id, err := identity(r)
	if err != nil {
		return model.Profile{}, err
	}
	if profiles == nil {
		return model.Profile{}, errUnavailable
	}
	return profiles.Active(r.Context(), id.AccountID)
}
