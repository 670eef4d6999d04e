package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cameron-nye/hearth/internal/calendar"
	"github.com/cameron-nye/hearth/internal/metrics"
	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/photos"
	"github.com/cameron-nye/hearth/internal/secrets"
	"github.com/cameron-nye/hearth/internal/service"
)

// Server provides the HTTP API for the household app and its kiosks.
type Server struct {
	svc        *service.Service
	logger     *logrus.Logger
	cipher     *secrets.Cipher
	calendars  *calendar.Syncer
	albums     *photos.Syncer
	cronSecret string
	mux        *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger, cipher *secrets.Cipher,
	calendars *calendar.Syncer, albums *photos.Syncer, cronSecret string) *Server {
	s := &Server{
		svc:        svc,
		logger:     logger,
		cipher:     cipher,
		calendars:  calendars,
		albums:     albums,
		cronSecret: cronSecret,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.withMetrics(s.mux)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Households & members
	s.mux.HandleFunc("POST /api/households", s.handleCreateHousehold)
	s.mux.HandleFunc("GET /api/households/{id}", s.handleGetHousehold)
	s.mux.HandleFunc("PUT /api/households/{id}", s.handleUpdateHousehold)
	s.mux.HandleFunc("GET /api/households/{id}/members", s.handleGetMembers)
	s.mux.HandleFunc("POST /api/households/{id}/members", s.handleCreateMember)
	s.mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)
	s.mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)

	// API – Calendar events
	s.mux.HandleFunc("GET /api/households/{id}/events", s.handleGetEvents)
	s.mux.HandleFunc("POST /api/households/{id}/events", s.handleCreateEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	// API – Connected calendars
	s.mux.HandleFunc("GET /api/households/{id}/calendar-sources", s.handleGetCalendarSources)
	s.mux.HandleFunc("POST /api/households/{id}/calendar-sources", s.handleConnectCalendarSource)
	s.mux.HandleFunc("POST /api/calendar-sources/{id}/sync", s.handleSyncCalendarSource)
	s.mux.HandleFunc("DELETE /api/calendar-sources/{id}", s.handleDeleteCalendarSource)

	// API – Chores & assignments
	s.mux.HandleFunc("GET /api/households/{id}/chores", s.handleGetChores)
	s.mux.HandleFunc("POST /api/households/{id}/chores", s.handleCreateChore)
	s.mux.HandleFunc("PUT /api/chores/{id}", s.handleUpdateChore)
	s.mux.HandleFunc("DELETE /api/chores/{id}", s.handleDeleteChore)
	s.mux.HandleFunc("GET /api/households/{id}/assignments", s.handleGetAssignments)
	s.mux.HandleFunc("POST /api/chores/{id}/assignments", s.handleCreateAssignment)
	s.mux.HandleFunc("PUT /api/assignments/{id}/complete", s.handleCompleteAssignment)
	s.mux.HandleFunc("DELETE /api/assignments/{id}", s.handleDeleteAssignment)

	// API – Photos & storage
	s.mux.HandleFunc("GET /api/households/{id}/photos", s.handleGetPhotos)
	s.mux.HandleFunc("POST /api/households/{id}/photos", s.handleUploadPhoto)
	s.mux.HandleFunc("GET /api/households/{id}/storage", s.handleGetStorage)
	s.mux.HandleFunc("GET /api/photos/{id}/file", s.handleGetPhotoFile)
	s.mux.HandleFunc("PUT /api/photos/{id}", s.handleUpdatePhoto)
	s.mux.HandleFunc("DELETE /api/photos/{id}", s.handleDeletePhoto)
	s.mux.HandleFunc("GET /api/households/{id}/photo-sources", s.handleGetPhotoSources)
	s.mux.HandleFunc("POST /api/households/{id}/photo-sources", s.handleCreatePhotoSource)
	s.mux.HandleFunc("PUT /api/photo-sources", s.handleUpdatePhotoSources)
	s.mux.HandleFunc("DELETE /api/photo-sources/{id}", s.handleDeletePhotoSource)

	// API – Displays
	s.mux.HandleFunc("GET /api/households/{id}/displays", s.handleGetDisplays)
	s.mux.HandleFunc("POST /api/households/{id}/displays", s.handleRegisterDisplay)
	s.mux.HandleFunc("GET /api/displays/{id}/settings", s.handleGetDisplaySettings)
	s.mux.HandleFunc("PUT /api/displays/{id}/settings", s.handleUpdateDisplaySettings)
	s.mux.HandleFunc("POST /api/displays/{id}/token", s.handleRotateDisplayToken)
	s.mux.HandleFunc("DELETE /api/displays/{id}", s.handleDeleteDisplay)

	// Kiosk endpoints, authenticated by display token
	s.mux.HandleFunc("GET /api/kiosk/schedule", s.handleKioskSchedule)
	s.mux.HandleFunc("GET /api/kiosk/photos", s.handleKioskPhotos)
	s.mux.HandleFunc("GET /api/kiosk/settings", s.handleKioskSettings)
	s.mux.HandleFunc("POST /api/kiosk/heartbeat", s.handleKioskHeartbeat)

	// Sync sweep trigger for the external cron
	s.mux.HandleFunc("POST /api/sync", s.handleSync)

	// Operational endpoints
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// statusWriter captures the response status for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// householdID extracts the {id} path value of household-scoped routes. It
// writes an error response and returns false when the value is invalid.
func (s *Server) householdID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid household id")
		return 0, false
	}
	return id, true
}

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// requireDisplay authenticates a kiosk request by its bearer token. It
// writes a 401 response and returns nil when the credential is missing or
// unknown.
func (s *Server) requireDisplay(w http.ResponseWriter, r *http.Request) *models.Display {
	display, err := s.svc.AuthenticateDisplay(r.Context(), bearerToken(r))
	if err != nil {
		s.logger.WithError(err).Error("failed to authenticate display")
		s.respondError(w, http.StatusInternalServerError, "failed to authenticate display")
		return nil
	}
	if display == nil {
		s.respondError(w, http.StatusUnauthorized, "invalid display token")
		return nil
	}
	return display
}
