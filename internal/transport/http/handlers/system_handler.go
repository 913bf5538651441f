package handlers

import (
	"net/http"

	"github.com/ivankudzin/crush/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

type SystemHandler struct {
	version string
}

func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

func (h *SystemHandler) Status(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.SystemStatusResponse{Status: "online", Version: h.version})
}

func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
