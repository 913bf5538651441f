package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	likessvc "github.com/ivankudzin/crush/internal/services/likes"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type LikesHandler struct {
	service   *likessvc.Service
	profiles  CallerProfiles
	presenter Presenter
	log       *zap.Logger
}

func NewLikesHandler(service *likessvc.Service, profiles CallerProfiles, presenter Presenter, log *zap.Logger) *LikesHandler {
	return &LikesHandler{service: service, profiles: profiles, presenter: presenter, log: log}
}

// Like answers 200 for a plain like and 201 when the like created a match.
func (h *LikesHandler) Like(w http.ResponseWriter, r *http.Request) {
	liker, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.service.Like(r.Context(), liker.ID, chi.URLParam(r, "profileId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := dto.LikeResponse{
		Match:   result.Matched(),
		Profile: h.presenter.Public(r.Context(), result.Target),
	}
	if !result.Matched() {
		httperrors.Write(w, http.StatusOK, resp)
		return
	}

	resp.MatchID = result.Match.ID
	httperrors.Write(w, http.StatusCreated, resp)
}
