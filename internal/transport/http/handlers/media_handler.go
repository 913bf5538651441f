package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	mediasvc "github.com/ivankudzin/crush/internal/services/media"
	httperrors "github.com/ivankudzin/crush/internal/transport/http/errors"
)

const (
	maxMultipartMemory = 8 << 20
	multipartOverhead  = 1 << 20
)

var (
	errInvalidMultipart = fmt.Errorf("invalid multipart form: %w", apperr.ErrValidation)
	errTooManyFiles     = fmt.Errorf("maximum %d photos per upload: %w", mediasvc.MaxPhotos, apperr.ErrValidation)
)

type MediaHandler struct {
	service   *mediasvc.Service
	presenter Presenter
	log       *zap.Logger
}

func NewMediaHandler(service *mediasvc.Service, presenter Presenter, log *zap.Logger) *MediaHandler {
	return &MediaHandler{service: service, presenter: presenter, log: log}
}

func (h *MediaHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mediasvc.MaxPhotos*mediasvc.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, h.log, errInvalidMultipart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["photos"]
	if len(headers) > mediasvc.MaxPhotos {
		writeError(w, r, h.log, errTooManyFiles)
		return
	}

	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.UploadPhotos(r.Context(), id.AccountID, uploads)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func (h *MediaHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.SetPrimaryPhoto(r.Context(), id.AccountID, chi.URLParam(r, "photoId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func (h *MediaHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profile, err := h.service.DeletePhoto(r.Context(), id.AccountID, chi.URLParam(r, "photoId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func (h *MediaHandler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mediasvc.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, h.log, errInvalidMultipart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("verification")
	if err != nil {
		writeError(w, r, h.log, mediasvc.ErrNoFiles)
		return
	}
	defer file.Close()

	profile, err := h.service.SubmitVerification(r.Context(), id.AccountID, mediasvc.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.presenter.Own(r.Context(), profile))
}

func openUploads(headers []*multipart.FileHeader) ([]mediasvc.Upload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]mediasvc.Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, closeAll, errInvalidMultipart
		}
		files = append(files, f)
		uploads = append(uploads, mediasvc.Upload{
			FileName: header.Filename,
			Size:     header.Size,
			Body:     f,
		})
	}
	return uploads, closeAll, nil
}
