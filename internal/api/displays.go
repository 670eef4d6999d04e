package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/schedule"
)

// onlineWindow is how recent a heartbeat must be for a display to count as
// online.
const onlineWindow = 5 * time.Minute

// ---------------------------------------------------------------------------
// Displays
// ---------------------------------------------------------------------------

type displayResponse struct {
	*models.Display
	Online   bool                   `json:"online"`
	Settings models.DisplaySettings `json:"settings"`
}

// toDisplayResponse normalizes the stored settings blob so clients always
// see a complete settings object, whatever is in the database.
func toDisplayResponse(d *models.Display, now time.Time) displayResponse {
	settings, _ := models.ParseDisplaySettings(d.Settings)
	return displayResponse{
		Display:  d,
		Online:   d.IsOnline(onlineWindow, now),
		Settings: settings,
	}
}

type registerDisplayRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleGetDisplays(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	displays, err := s.svc.Displays.GetByHousehold(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get displays")
		s.respondError(w, http.StatusInternalServerError, "failed to get displays")
		return
	}

	now := time.Now()
	out := make([]displayResponse, 0, len(displays))
	for _, d := range displays {
		out = append(out, toDisplayResponse(d, now))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegisterDisplay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req registerDisplayRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	display, err := s.svc.RegisterDisplay(r.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		s.logger.WithError(err).Error("failed to register display")
		s.respondError(w, http.StatusInternalServerError, "failed to register display")
		return
	}

	// The token is only revealed at registration time.
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"display": toDisplayResponse(display, time.Now()),
		"token":   display.AuthToken,
	})
}

func (s *Server) handleGetDisplaySettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid display id")
		return
	}

	display, err := s.svc.Displays.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get display")
		s.respondError(w, http.StatusInternalServerError, "failed to get display")
		return
	}
	if display == nil {
		s.respondError(w, http.StatusNotFound, "display not found")
		return
	}

	settings, err := models.ParseDisplaySettings(display.Settings)
	if err != nil {
		s.logger.WithError(err).Warnf("Display %d has corrupt settings, serving defaults", id)
		settings = models.DefaultDisplaySettings()
	}
	s.respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateDisplaySettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid display id")
		return
	}

	display, err := s.svc.Displays.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get display")
		s.respondError(w, http.StatusInternalServerError, "failed to get display")
		return
	}
	if display == nil {
		s.respondError(w, http.StatusNotFound, "display not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadMemory))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	// Run the payload through the parser so invalid fields fall back to
	// defaults and only the canonical form is stored.
	settings, err := models.ParseDisplaySettings(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "settings must be a JSON object")
		return
	}
	encoded, err := settings.Encode()
	if err != nil {
		s.logger.WithError(err).Error("failed to encode display settings")
		s.respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	display.Settings = encoded
	updated, err := s.svc.Displays.Update(r.Context(), display)
	if err != nil {
		s.logger.WithError(err).Error("failed to update display")
		s.respondError(w, http.StatusInternalServerError, "failed to update display")
		return
	}

	s.respondJSON(w, http.StatusOK, toDisplayResponse(updated, time.Now()))
}

func (s *Server) handleRotateDisplayToken(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid display id")
		return
	}

	display, err := s.svc.Displays.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get display")
		s.respondError(w, http.StatusInternalServerError, "failed to get display")
		return
	}
	if display == nil {
		s.respondError(w, http.StatusNotFound, "display not found")
		return
	}

	token, err := s.svc.RotateDisplayToken(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to rotate display token")
		s.respondError(w, http.StatusInternalServerError, "failed to rotate display token")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleDeleteDisplay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid display id")
		return
	}

	if err := s.svc.Displays.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete display")
		s.respondError(w, http.StatusInternalServerError, "failed to delete display")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Kiosk endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleKioskSchedule(w http.ResponseWriter, r *http.Request) {
	display := s.requireDisplay(w, r)
	if display == nil {
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 31 {
			s.respondError(w, http.StatusBadRequest, "days must be between 1 and 31")
			return
		}
		days = v
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, days)

	events, err := s.svc.Events.GetByHousehold(r.Context(), display.HouseholdID,
		repository.EventFilters{From: &from, To: &to})
	if err != nil {
		s.logger.WithError(err).Error("failed to get kiosk events")
		s.respondError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}

	assignments, err := s.svc.Assignments.GetByHousehold(r.Context(), display.HouseholdID,
		repository.AssignmentFilters{From: &from, To: &to})
	if err != nil {
		s.logger.WithError(err).Error("failed to get kiosk assignments")
		s.respondError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}

	eventsByDay := make(map[string][]*models.Event)
	for _, e := range events {
		key := e.StartTime.In(now.Location()).Format("2006-01-02")
		eventsByDay[key] = append(eventsByDay[key], e)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"from":        from.Format("2006-01-02"),
		"days":        days,
		"events":      eventsByDay,
		"assignments": schedule.GroupByDay(assignments),
	})
}

func (s *Server) handleKioskPhotos(w http.ResponseWriter, r *http.Request) {
	display := s.requireDisplay(w, r)
	if display == nil {
		return
	}

	photos, err := s.svc.Photos.GetByHousehold(r.Context(), display.HouseholdID, true)
	if err != nil {
		s.logger.WithError(err).Error("failed to get kiosk photos")
		s.respondError(w, http.StatusInternalServerError, "failed to get photos")
		return
	}

	s.respondJSON(w, http.StatusOK, photos)
}

func (s *Server) handleKioskSettings(w http.ResponseWriter, r *http.Request) {
	display := s.requireDisplay(w, r)
	if display == nil {
		return
	}

	settings, err := models.ParseDisplaySettings(display.Settings)
	if err != nil {
		// A corrupt blob still yields usable defaults.
		s.logger.WithError(err).WithField("display_id", display.ID).
			Warn("display settings blob is invalid, serving defaults")
	}
	s.respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleKioskHeartbeat(w http.ResponseWriter, r *http.Request) {
	display := s.requireDisplay(w, r)
	if display == nil {
		return
	}

	if err := s.svc.Heartbeat(r.Context(), display.ID); err != nil {
		s.logger.WithError(err).Error("failed to record heartbeat")
		s.respondError(w, http.StatusInternalServerError, "failed to record heartbeat")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
