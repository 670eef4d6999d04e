package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/storage"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// uploads spill to temp files.
const maxUploadMemory = 8 << 20

// ---------------------------------------------------------------------------
// Photos
// ---------------------------------------------------------------------------

type quotaResponse struct {
	UsedBytes      int64  `json:"used_bytes"`
	LimitBytes     int64  `json:"limit_bytes"`
	RemainingBytes int64  `json:"remaining_bytes"`
	Used           string `json:"used"`
	Limit          string `json:"limit"`
	Warning        bool   `json:"warning"`
}

func quotaToResponse(q storage.Quota) quotaResponse {
	return quotaResponse{
		UsedBytes:      q.UsedBytes,
		LimitBytes:     q.LimitBytes,
		RemainingBytes: q.Remaining(),
		Used:           storage.FormatBytes(q.UsedBytes),
		Limit:          storage.FormatBytes(q.LimitBytes),
		Warning:        q.Warning,
	}
}

func (s *Server) handleGetPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	onlyEnabled := r.URL.Query().Get("only_enabled") == "true"
	photos, err := s.svc.Photos.GetByHousehold(r.Context(), id, onlyEnabled)
	if err != nil {
		s.logger.WithError(err).Error("failed to get photos")
		s.respondError(w, http.StatusInternalServerError, "failed to get photos")
		return
	}

	s.respondJSON(w, http.StatusOK, photos)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondError(w, http.StatusBadRequest, "request must be multipart form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	photo, err := s.svc.UploadPhoto(r.Context(), id, file, contentType, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrQuotaExceeded):
			s.respondError(w, http.StatusRequestEntityTooLarge, "storage quota exceeded")
		case errors.Is(err, storage.ErrUnsupportedType):
			s.respondError(w, http.StatusUnsupportedMediaType, "unsupported image type")
		default:
			s.logger.WithError(err).Error("failed to upload photo")
			s.respondError(w, http.StatusInternalServerError, "failed to upload photo")
		}
		return
	}

	quota, err := s.svc.PhotoQuota(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to compute quota after upload")
		s.respondJSON(w, http.StatusCreated, map[string]any{"photo": photo})
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"photo":   photo,
		"storage": quotaToResponse(quota),
	})
}

func (s *Server) handleGetStorage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	quota, err := s.svc.PhotoQuota(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get storage usage")
		s.respondError(w, http.StatusInternalServerError, "failed to get storage usage")
		return
	}

	s.respondJSON(w, http.StatusOK, quotaToResponse(quota))
}

func (s *Server) handleGetPhotoFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.svc.Photos.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get photo")
		s.respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if photo == nil {
		s.respondError(w, http.StatusNotFound, "photo not found")
		return
	}

	f, err := s.svc.OpenPhoto(photo)
	if err != nil {
		s.logger.WithError(err).WithField("photo_id", id).Error("failed to open photo file")
		s.respondError(w, http.StatusNotFound, "photo file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, f); err != nil {
		s.logger.WithError(err).Debug("photo stream interrupted")
	}
}

type updatePhotoRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	var req updatePhotoRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	photo, err := s.svc.Photos.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get photo")
		s.respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if photo == nil {
		s.respondError(w, http.StatusNotFound, "photo not found")
		return
	}

	photo.Enabled = req.Enabled
	updated, err := s.svc.Photos.Update(r.Context(), photo)
	if err != nil {
		s.logger.WithError(err).Error("failed to update photo")
		s.respondError(w, http.StatusInternalServerError, "failed to update photo")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.svc.Photos.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get photo")
		s.respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if photo == nil {
		s.respondError(w, http.StatusNotFound, "photo not found")
		return
	}

	if err := s.svc.DeletePhoto(r.Context(), photo); err != nil {
		s.logger.WithError(err).Error("failed to delete photo")
		s.respondError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Connected photo albums
// ---------------------------------------------------------------------------

type createPhotoSourceRequest struct {
	Provider  string `json:"provider"`
	AlbumID   string `json:"album_id"`
	AlbumName string `json:"album_name"`
}

func (s *Server) handleGetPhotoSources(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	sources, err := s.svc.PhotoSources.GetByHousehold(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get photo sources")
		s.respondError(w, http.StatusInternalServerError, "failed to get photo sources")
		return
	}

	s.respondJSON(w, http.StatusOK, sources)
}

func (s *Server) handleCreatePhotoSource(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req createPhotoSourceRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.AlbumID) == "" {
		s.respondError(w, http.StatusBadRequest, "album_id is required")
		return
	}
	if req.Provider == "" {
		req.Provider = "google"
	}

	created, err := s.svc.PhotoSources.Create(r.Context(), &models.PhotoSource{
		HouseholdID: id,
		Provider:    req.Provider,
		AlbumID:     strings.TrimSpace(req.AlbumID),
		AlbumName:   strings.TrimSpace(req.AlbumName),
		Enabled:     true,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create photo source")
		s.respondError(w, http.StatusInternalServerError, "failed to create photo source")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

type updatePhotoSourceItem struct {
	ID        int64   `json:"id"`
	Enabled   *bool   `json:"enabled,omitempty"`
	AlbumName *string `json:"album_name,omitempty"`
}

type photoSourceResult struct {
	ID     int64               `json:"id"`
	Status int                 `json:"status"`
	Source *models.PhotoSource `json:"source,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// handleUpdatePhotoSources applies a batch of per-source updates. Each item
// is attempted independently; if any fail the response is 207 with a status
// per item.
func (s *Server) handleUpdatePhotoSources(w http.ResponseWriter, r *http.Request) {
	var items []updatePhotoSourceItem
	if ok, msg := s.decodeJSON(r, &items); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if len(items) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one source is required")
		return
	}

	results := make([]photoSourceResult, 0, len(items))
	failed := false
	for _, item := range items {
		result := photoSourceResult{ID: item.ID}
		source, err := s.svc.PhotoSources.GetByID(r.Context(), item.ID)
		switch {
		case err != nil:
			s.logger.WithError(err).Errorf("Failed to get photo source %d", item.ID)
			result.Status = http.StatusInternalServerError
			result.Error = "failed to get photo source"
		case source == nil:
			result.Status = http.StatusNotFound
			result.Error = "photo source not found"
		default:
			if item.Enabled != nil {
				source.Enabled = *item.Enabled
			}
			if item.AlbumName != nil {
				source.AlbumName = strings.TrimSpace(*item.AlbumName)
			}
			updated, err := s.svc.PhotoSources.Update(r.Context(), source)
			if err != nil {
				s.logger.WithError(err).Errorf("Failed to update photo source %d", item.ID)
				result.Status = http.StatusInternalServerError
				result.Error = "failed to update photo source"
			} else {
				result.Status = http.StatusOK
				result.Source = updated
			}
		}
		if result.Error != "" {
			failed = true
		}
		results = append(results, result)
	}

	status := http.StatusOK
	if failed {
		status = http.StatusMultiStatus
	}
	s.respondJSON(w, status, map[string]interface{}{"results": results})
}

func (s *Server) handleDeletePhotoSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid photo source id")
		return
	}

	if err := s.svc.PhotoSources.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete photo source")
		s.respondError(w, http.StatusInternalServerError, "failed to delete photo source")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
