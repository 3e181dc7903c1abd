package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskman-io/apiserver/internal/services"
	"github.com/taskman-io/apiserver/internal/store"
)

const (
	maxAttachmentMemory = 32 << 20
	maxAttachmentBytes  = 64 << 20
	formFieldFile       = "file"
)

// AttachmentHandler provides HTTP handlers for task attachments.
type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// AttachmentRouter registers attachment routes. It expects to be mounted
// under a route that carries a taskID URL parameter.
func AttachmentRouter(r chi.Router, attachmentService *services.AttachmentService) {
	handler := NewAttachmentHandler(attachmentService)

	r.Post("/", handler.Upload)
	r.Get("/", handler.List)
	r.Route("/{attachmentID}", func(r chi.Router) {
		r.Get("/", handler.Download)
		r.Delete("/", handler.Delete)
	})
}

func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAttachmentBytes {
		writeError(w, http.StatusBadRequest, "uploaded file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachmentService.Upload(r.Context(), taskID, header.Filename, contentType, file, header.Size)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	writeJSON(w, http.StatusCreated, attachment)
}

func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachments, err := h.attachmentService.ListForTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list attachments")
		return
	}

	writeJSON(w, http.StatusOK, attachments)
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	taskID, attachmentID, err := parseAttachmentIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment, reader, err := h.attachmentService.Open(r.Context(), attachmentID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open attachment")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachment.Filename+`"`)
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	_, _ = io.Copy(w, reader)
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, attachmentID, err := parseAttachmentIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.attachmentService.Delete(r.Context(), attachmentID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseAttachmentIDs(r *http.Request) (taskID, attachmentID int, err error) {
	taskID, err = parseIDParam(r, "taskID")
	if err != nil {
		return 0, 0, err
	}
	attachmentID, err = parseIDParam(r, "attachmentID")
	if err != nil {
		return 0, 0, err
	}
	return taskID, attachmentID, nil
}
