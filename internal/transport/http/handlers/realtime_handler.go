package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/services/realtime"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	profiles CallerProfiles
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, profiles CallerProfiles, log *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		profiles: profiles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Connect upgrades the request and streams match and message events for the
// caller's profile until the client disconnects.
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	caller, err := callerProfile(r, h.profiles)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if h.hub == nil {
		writeError(w, r, h.log, errUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.log != nil {
			h.log.Debug("websocket upgrade failed", zap.Error(err))
		}
		return
	}
	h.hub.Serve(conn, caller.ID)
}
