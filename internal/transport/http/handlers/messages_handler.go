package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/model"
	messagessvc "github.com/ivankudzin/crush/internal/services/messages"
	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type MessagesHandler struct {
	service  *messagessvc.Service
	profiles CallerProfiles
	log      *zap.Logger
}

func NewMessagesHandler(service *messagessvc.Service, profiles CallerProfiles, log *zap.Logger) *MessagesHandler {
	return &MessagesHandler{service: service, profiles: profiles, log: log}
}

func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	items, err := h.service.Conversation(r.Context(), caller.ID, chi.URLParam(r, "profileId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := make([]dto.ChatMessageResponse, 0, len(items))
	for _, msg := range items {
		resp = append(resp, messageResponse(msg))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req dto.SendMessageRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	msg, err := h.service.Send(r.Context(), caller.ID, req.RecipientID, req.Content)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, messageResponse(msg))
}

func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	msg, err := h.service.MarkRead(r.Context(), chi.URLParam(r, "messageId"), caller.ID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, messageResponse(msg))
}

func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "messageId"), caller.ID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Message deleted"})
}

func messageResponse(msg model.Message) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:          msg.ID,
		MatchID:     msg.MatchID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		Read:        msg.Read,
		CreatedAt:   msg.CreatedAt,
	}
}
