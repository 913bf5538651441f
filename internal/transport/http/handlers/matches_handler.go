package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	matchessvc "github.com/ivankudzin/crush/internal/services/matches"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type MatchesHandler struct {
	service   *matchessvc.Service
	profiles  CallerProfiles
	presenter Presenter
	log       *zap.Logger
}

func NewMatchesHandler(service *matchessvc.Service, profiles CallerProfiles, presenter Presenter, log *zap.Logger) *MatchesHandler {
	return &MatchesHandler{service: service, profiles: profiles, presenter: presenter, log: log}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.List)
}

func (h *MatchesHandler) History(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.History)
}

func (h *MatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "matchId"), caller.ID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	m := detail.Match
	httperrors.Write(w, http.StatusOK, dto.MatchDetailResponse{
		ID:                m.ID,
		Status:            m.Status,
		CreatedAt:         m.CreatedAt,
		LastInteractionAt: m.LastInteractionAt,
		UnmatchedAt:       m.UnmatchedAt,
		UnmatchedBy:       m.UnmatchedBy,
		Users: []dto.PublicProfileResponse{
			h.presenter.Public(r.Context(), detail.UserA),
			h.presenter.Public(r.Context(), detail.UserB),
		},
	})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if _, err := h.service.Unmatch(r.Context(), chi.URLParam(r, "matchId"), caller.ID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Unmatched successfully"})
}

func (h *MatchesHandler) list(w http.ResponseWriter, r *http.Request, load func(context.Context, string) ([]matchessvc.Item, error)) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	items, err := load(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := make([]dto.MatchedProfileResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.MatchedProfileResponse{
			PublicProfileResponse: h.presenter.Public(r.Context(), item.Counterpart),
			MatchID:               item.Match.ID,
			Status:                item.Match.Status,
			MatchedAt:             item.Match.CreatedAt,
			UnmatchedAt:           item.Match.UnmatchedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}
