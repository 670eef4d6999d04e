package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/recurrence"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/schedule"
)

// ---------------------------------------------------------------------------
// Chores
// ---------------------------------------------------------------------------

type createChoreRequest struct {
	Title      string `json:"title"`
	Icon       string `json:"icon"`
	Points     int    `json:"points"`
	Recurrence string `json:"recurrence"` // RRULE, optional
}

func (s *Server) handleGetChores(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	chores, err := s.svc.Chores.GetByHousehold(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get chores")
		s.respondError(w, http.StatusInternalServerError, "failed to get chores")
		return
	}

	s.respondJSON(w, http.StatusOK, chores)
}

func (s *Server) handleCreateChore(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req createChoreRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Recurrence != "" {
		if _, err := recurrence.Parse(req.Recurrence); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid recurrence rule")
			return
		}
	}

	created, err := s.svc.Chores.Create(r.Context(), &models.Chore{
		HouseholdID: id,
		Title:       strings.TrimSpace(req.Title),
		Icon:        strings.TrimSpace(req.Icon),
		Points:      req.Points,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create chore")
		s.respondError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateChore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chore id")
		return
	}

	var req createChoreRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	chore, err := s.svc.Chores.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get chore")
		s.respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if chore == nil {
		s.respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		chore.Title = strings.TrimSpace(req.Title)
	}
	chore.Icon = strings.TrimSpace(req.Icon)
	chore.Points = req.Points
	if req.Recurrence != "" {
		if _, err := recurrence.Parse(req.Recurrence); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid recurrence rule")
			return
		}
	}
	chore.Recurrence = req.Recurrence

	updated, err := s.svc.Chores.Update(r.Context(), chore)
	if err != nil {
		s.logger.WithError(err).Error("failed to update chore")
		s.respondError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteChore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chore id")
		return
	}

	if err := s.svc.Chores.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete chore")
		s.respondError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Chore assignments
// ---------------------------------------------------------------------------

type createAssignmentRequest struct {
	MemberID *int64 `json:"member_id"`
	DueDate  string `json:"due_date"` // RFC 3339
}

func (s *Server) handleGetAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	bucket, err := schedule.ParseBucket(q.Get("bucket"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "bucket must be today, next7, next30 or all")
		return
	}

	filter := schedule.Filter{Bucket: bucket}
	if raw := q.Get("member_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "member_id must be an integer")
			return
		}
		filter.MemberID = &v
	}
	if raw := q.Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "completed must be a boolean")
			return
		}
		filter.Completed = &v
	}

	assignments, err := s.svc.Assignments.GetByHousehold(r.Context(), id, repository.AssignmentFilters{})
	if err != nil {
		s.logger.WithError(err).Error("failed to get assignments")
		s.respondError(w, http.StatusInternalServerError, "failed to get assignments")
		return
	}
	assignments = schedule.Apply(assignments, filter)

	switch q.Get("group_by") {
	case "":
		s.respondJSON(w, http.StatusOK, assignments)
	case "day":
		s.respondJSON(w, http.StatusOK, schedule.GroupByDay(assignments))
	case "week":
		s.respondJSON(w, http.StatusOK, schedule.GroupByWeek(assignments))
	default:
		s.respondError(w, http.StatusBadRequest, "group_by must be day or week")
	}
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	choreID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chore id")
		return
	}

	var req createAssignmentRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.DueDate == "" {
		s.respondError(w, http.StatusBadRequest, "due_date is required")
		return
	}
	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "due_date must be RFC 3339 format")
		return
	}

	chore, err := s.svc.Chores.GetByID(r.Context(), choreID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get chore")
		s.respondError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if chore == nil {
		s.respondError(w, http.StatusNotFound, "chore not found")
		return
	}

	created, err := s.svc.Assignments.Create(r.Context(), &models.ChoreAssignment{
		ChoreID:  choreID,
		MemberID: req.MemberID,
		DueDate:  dueDate,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create assignment")
		s.respondError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCompleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	completed, err := s.svc.CompleteAssignment(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to complete assignment")
		s.respondError(w, http.StatusInternalServerError, "failed to complete assignment")
		return
	}
	if completed == nil {
		s.respondError(w, http.StatusNotFound, "assignment not found")
		return
	}

	s.respondJSON(w, http.StatusOK, completed)
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	if err := s.svc.Assignments.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete assignment")
		s.respondError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
