package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cameron-nye/hearth/internal/calendar"
	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/recurrence"
	"github.com/cameron-nye/hearth/internal/repository"
)

// ---------------------------------------------------------------------------
// Calendar Events
// ---------------------------------------------------------------------------

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"` // RFC 3339
	EndTime     string `json:"end_time"`   // RFC 3339, optional
	AllDay      bool   `json:"all_day"`
	Recurrence  string `json:"recurrence"` // RRULE, optional
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var filters repository.EventFilters

	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "from must be RFC 3339 format")
			return
		}
		filters.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "to must be RFC 3339 format")
			return
		}
		filters.To = &t
	}
	if limit := q.Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			filters.Limit = v
		}
	}

	events, err := s.svc.Events.GetByHousehold(r.Context(), id, filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to get events")
		s.respondError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartTime == "" {
		s.respondError(w, http.StatusBadRequest, "start_time is required")
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "start_time must be RFC 3339 format")
		return
	}
	if req.Recurrence != "" {
		if _, err := recurrence.Parse(req.Recurrence); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid recurrence rule")
			return
		}
	}

	event := &models.Event{
		HouseholdID: id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartTime:   startTime,
		AllDay:      req.AllDay,
		Recurrence:  req.Recurrence,
	}

	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "end_time must be RFC 3339 format")
			return
		}
		if t.Before(startTime) {
			s.respondError(w, http.StatusBadRequest, "end_time must not be before start_time")
			return
		}
		event.EndTime = &t
	}

	created, err := s.svc.Events.Create(r.Context(), event)
	if err != nil {
		s.logger.WithError(err).Error("failed to create event")
		s.respondError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req createEventRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := s.svc.Events.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get event")
		s.respondError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		s.respondError(w, http.StatusNotFound, "event not found")
		return
	}
	// Provider-synced events are overwritten on the next sweep, so local
	// edits are only allowed on events created here.
	if event.CalendarSourceID != nil {
		s.respondError(w, http.StatusConflict, "synced events cannot be edited")
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		event.Title = strings.TrimSpace(req.Title)
	}
	event.Description = strings.TrimSpace(req.Description)
	event.Location = strings.TrimSpace(req.Location)
	event.AllDay = req.AllDay

	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "start_time must be RFC 3339 format")
			return
		}
		event.StartTime = t
	}
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "end_time must be RFC 3339 format")
			return
		}
		event.EndTime = &t
	}
	if req.Recurrence != "" {
		if _, err := recurrence.Parse(req.Recurrence); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid recurrence rule")
			return
		}
		event.Recurrence = req.Recurrence
	}

	updated, err := s.svc.Events.Update(r.Context(), event)
	if err != nil {
		s.logger.WithError(err).Error("failed to update event")
		s.respondError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := s.svc.Events.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete event")
		s.respondError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Connected calendars
// ---------------------------------------------------------------------------

type connectCalendarRequest struct {
	Provider     string `json:"provider"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenExpiry  string `json:"token_expiry"` // RFC 3339, optional
}

func (s *Server) handleGetCalendarSources(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	sources, err := s.svc.CalendarSources.GetByHousehold(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get calendar sources")
		s.respondError(w, http.StatusInternalServerError, "failed to get calendar sources")
		return
	}

	s.respondJSON(w, http.StatusOK, sources)
}

func (s *Server) handleConnectCalendarSource(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req connectCalendarRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if models.CalendarProvider(req.Provider) != models.CalendarProviderGoogle {
		s.respondError(w, http.StatusBadRequest, "unsupported calendar provider")
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		s.respondError(w, http.StatusBadRequest, "access_token and refresh_token are required")
		return
	}

	// Tokens are never stored in the clear.
	accessToken, err := s.cipher.Encrypt(req.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.respondError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}
	refreshToken, err := s.cipher.Encrypt(req.RefreshToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt refresh token")
		s.respondError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	source := &models.CalendarSource{
		HouseholdID:  id,
		Provider:     models.CalendarProvider(req.Provider),
		Name:         strings.TrimSpace(req.Name),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Enabled:      true,
	}
	if req.TokenExpiry != "" {
		t, err := time.Parse(time.RFC3339, req.TokenExpiry)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "token_expiry must be RFC 3339 format")
			return
		}
		source.TokenExpiry = &t
	}

	created, err := s.svc.CalendarSources.Create(r.Context(), source)
	if err != nil {
		s.logger.WithError(err).Error("failed to connect calendar")
		s.respondError(w, http.StatusInternalServerError, "failed to connect calendar")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSyncCalendarSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid calendar source id")
		return
	}

	source, err := s.svc.CalendarSources.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get calendar source")
		s.respondError(w, http.StatusInternalServerError, "failed to get calendar source")
		return
	}
	if source == nil {
		s.respondError(w, http.StatusNotFound, "calendar source not found")
		return
	}

	result, err := s.calendars.SyncSource(r.Context(), source)
	if err != nil {
		s.logger.WithError(err).WithField("source_id", id).Error("manual sync failed")
		status := http.StatusBadGateway
		if calendar.Classify(err) == calendar.KindAuth {
			status = http.StatusUnauthorized
		}
		s.respondError(w, status, "sync failed: "+err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteCalendarSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid calendar source id")
		return
	}

	if err := s.svc.CalendarSources.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete calendar source")
		s.respondError(w, http.StatusInternalServerError, "failed to delete calendar source")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
