package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	fileapp "github.com/go-auth-api/internal/application/file"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// FileHandler handles S3 file endpoints.
type FileHandler struct {
	svc fileapp.Service
}

func NewFileHandler(svc fileapp.Service) *FileHandler { return &FileHandler{svc: svc} }

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer f.Close()

	uploaded, err := h.svc.Upload(r.Context(), fileapp.UploadInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		IsPrivate:   r.URL.Query().Get("private") == "true",
		UploaderID:  ac.Claims.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "file uploaded", uploaded)
}

func (h *FileHandler) UploadBase64(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	var body struct {
		FileName string `json:"file_name"`
		Base64   string `json:"base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	uploaded, err := h.svc.UploadBase64(r.Context(), body.FileName, body.Base64, ac.Claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "file uploaded", uploaded)
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	rc, f, err := h.svc.Download(r.Context(), chi.URLParam(r, "id"), ac.Claims.UserID, isAdmin(ac))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", f.Type)
	_, _ = io.Copy(w, rc)
}

// DownloadURL returns the file record with a time-limited presigned link
// instead of streaming the bytes.
func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	f, err := h.svc.DownloadURL(r.Context(), chi.URLParam(r, "id"), ac.Claims.UserID, isAdmin(ac))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", f)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), ac.Claims.UserID, isAdmin(ac)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "file deleted", nil)
}

func isAdmin(ac *middleware.AuthContext) bool {
	return ac.User != nil &&
		(ac.User.Role == domain.RoleAdmin || ac.User.Role == domain.RoleSuperAdmin)
}
