package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/authoring"
	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/extract"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/internal/storage"
	"github.com/hyperjump/studio/internal/syncdoc"
	"github.com/hyperjump/studio/internal/uploads"
)

// OllamaUnreachable is shown when the local provider fails.
const OllamaUnreachable = "Ollama is not reachable. Make sure it is running and the model is installed."

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	var req models.AuthoringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "Invalid AI request")
		return
	}
	// The provider call outlives a client disconnect; the provider's own timeout bounds it.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.authoring.Author(ctx, &req)
	if err != nil {
		s.respondAIError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondAIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, authoring.ErrInvalidRequest) {
		s.respondError(w, http.StatusBadRequest, "Invalid AI request")
		return
	}
	s.logger.Error("ai request failed", zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context())))
	if s.authoring.Provider().Name() == config.ProviderOllama {
		s.respondError(w, http.StatusServiceUnavailable, OllamaUnreachable)
		return
	}
	s.respondError(w, http.StatusInternalServerError, "AI request failed")
}

func (s *Server) handleSyncRead(w http.ResponseWriter, r *http.Request) {
	doc, err := s.sync.Read(r.Context())
	if err != nil {
		s.logger.Error("sync read failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read sync data")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleSyncWrite(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondBodyError(w, err)
		return
	}
	stamp, err := s.sync.Write(r.Context(), body)
	if errors.Is(err, syncdoc.ErrNotObject) {
		s.respondError(w, http.StatusBadRequest, "Sync payload must be a JSON object")
		return
	}
	if err != nil {
		s.logger.Error("sync write failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to write sync data")
		return
	}
	respondJSON(w, http.StatusOK, models.SyncWriteResult{OK: true, UpdatedAt: stamp})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var in models.UploadInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondBodyError(w, err)
		return
	}
	asset, err := s.uploads.Save(r.Context(), in)
	if errors.Is(err, uploads.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, "fileName and data are required")
		return
	}
	if err != nil {
		s.logger.Error("upload failed", zap.Error(err), zap.String("file_name", in.FileName))
		s.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

func (s *Server) handleUploadText(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	text, err := s.uploads.Text(r.Context(), name)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, text)
	case errors.Is(err, uploads.ErrInvalidName):
		s.respondError(w, http.StatusBadRequest, "invalid upload name")
	case errors.Is(err, fs.ErrNotExist):
		s.respondError(w, http.StatusNotFound, "upload not found")
	case errors.Is(err, extract.ErrUnsupported):
		s.respondError(w, http.StatusUnsupportedMediaType, "no text can be extracted from this file type")
	default:
		s.logger.Error("upload text extraction failed", zap.Error(err), zap.String("name", name))
		s.respondError(w, http.StatusInternalServerError, "Failed to read upload")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.authoring.Provider()
	status := models.Status{
		Provider:       p.Name(),
		Model:          p.Model(),
		StorageBackend: s.config.Storage.Backend,
		AuthRequired:   s.config.Auth.SyncToken != "",
	}
	stamp, err := s.sync.UpdatedAt(ctx)
	if err != nil {
		s.logger.Error("status: read sync document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read sync data")
		return
	}
	status.SyncUpdatedAt = stamp

	count, size, err := s.uploads.Stats()
	if err != nil {
		s.logger.Error("status: upload stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read uploads")
		return
	}
	status.Uploads, status.UploadBytes = count, size

	var paths []string
	switch s.config.Storage.Backend {
	case config.BackendFile, "":
		paths = append(paths, s.config.Storage.SyncPath)
	case config.BackendSQLite:
		paths = append(paths, s.config.Storage.DatabasePath)
	}
	if disk, err := storage.DiskUsageBytes(append(paths, s.uploads.Dir())...); err == nil {
		status.DiskUsageBytes = &disk
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	s.respondError(w, http.StatusBadRequest, "invalid request body")
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
