package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/rules"
	discoversvc "github.com/ivankudzin/crush/internal/services/discover"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type DiscoverHandler struct {
	service   *discoversvc.Service
	profiles  CallerProfiles
	presenter Presenter
	log       *zap.Logger
}

func NewDiscoverHandler(service *discoversvc.Service, profiles CallerProfiles, presenter Presenter, log *zap.Logger) *DiscoverHandler {
	return &DiscoverHandler{service: service, profiles: profiles, presenter: presenter, log: log}
}

// Discover lists candidates for the caller. Query parameters ageRange,
// maxDistance and gender override the caller's stored preferences.
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	viewer, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	query := r.URL.Query()
	items, err := h.service.FindCandidates(r.Context(), viewer, rules.RawFilter{
		AgeRange:    query.Get("ageRange"),
		MaxDistance: query.Get("maxDistance"),
		Gender:      query.Get("gender"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.PublicList(r.Context(), items))
}
