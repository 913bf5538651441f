package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	profilessvc "github.com/ivankudzin/crush/internal/services/profiles"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type ProfileHandler struct {
	service   *profilessvc.Service
	presenter Presenter
	log       *zap.Logger
}

func NewProfileHandler(service *profilessvc.Service, presenter Presenter, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, presenter: presenter, log: log}
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.ProfileRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.Create(r.Context(), id.AccountID, profileInput(req))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, h.presenter.Own(r.Context(), profile))
}

func (h *ProfileHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.Mine(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func (h *ProfileHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), id.AccountID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Profile deactivated"})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := identity(r); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "profileId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Public(r.Context(), profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.ProfileRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.Update(r.Context(), id.AccountID, chi.URLParam(r, "profileId"), profileInput(req))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func (h *ProfileHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.BioRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.respond(w, r)(h.service.UpdateBio(r.Context(), id.AccountID, req.Bio))
}

func (h *ProfileHandler) AddInterests(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.InterestsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.respond(w, r)(h.service.AddInterests(r.Context(), id.AccountID, req.Interests))
}

func (h *ProfileHandler) RemoveInterests(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.InterestsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.respond(w, r)(h.service.RemoveInterests(r.Context(), id.AccountID, req.Interests))
}

func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.PreferencesRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.respond(w, r)(h.service.UpdatePreferences(r.Context(), id.AccountID, preferencesInput(req)))
}

func (h *ProfileHandler) respond(w http.ResponseWriter, r *http.Request) func(model.Profile, error) {
	return func(profile model.Profile, err error) {
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
	}
}

func profileInput(req dto.ProfileRequest) profilessvc.Input {
	in := profilessvc.Input{
		Name:   req.Name,
		Age:    req.Age,
		Gender: enums.Gender(req.Gender),
		Location: model.Location{
			City:  req.Location.City,
			State: req.Location.State,
		},
		Bio:       req.Bio,
		Interests: req.Interests,
	}
	if req.Location.Latitude != nil {
		in.Location.Latitude = *req.Location.Latitude
	}
	if req.Location.Longitude != nil {
		in.Location.Longitude = *req.Location.Longitude
	}
	if req.Preferences != nil {
		prefs := preferencesInput(*req.Preferences)
		in.Preferences = &prefs
	}
	return in
}

func preferencesInput(req dto.PreferencesRequest) profilessvc.PreferencesInput {
	in := profilessvc.PreferencesInput{MaxDistance: req.MaxDistance}
	if req.AgeRange != nil {
		in.AgeRange = &model.AgeRange{Min: req.AgeRange.Min, Max: req.AgeRange.Max}
	}
	if req.PreferredGenders != nil {
		in.PreferredGenders = make([]enums.Gender, 0, len(req.PreferredGenders))
		for _, g := range req.PreferredGenders {
			in.PreferredGenders = append(in.PreferredGenders, enums.Gender(g))
		}
	}
	return in
}
