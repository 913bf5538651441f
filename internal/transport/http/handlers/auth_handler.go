package handlers

import (
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/crush/internal/services/auth"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	log     *zap.Logger
}

func NewAuthHandler(service *authsvc.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, r, h.log, errUnavailable)
		return
	}

	var req dto.RegisterRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.service.Register(r.Context(), authsvc.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, authResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, r, h.log, errUnavailable)
		return
	}

	var req dto.LoginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, authResponse(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if h.service == nil {
		writeError(w, r, h.log, errUnavailable)
		return
	}

	account, err := h.service.Me(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	})
}

func authResponse(result authsvc.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.AccessToken,
		ExpiresAt: result.AccessExpires,
		User: dto.AccountResponse{
			ID:    result.AccountID,
			Name:  result.Name,
			Email: result.Email,
		},
	}
}
