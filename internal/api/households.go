package api

import (
	"net/http"
	"strings"

	"github.com/cameron-nye/hearth/internal/models"
)

// ---------------------------------------------------------------------------
// Households
// ---------------------------------------------------------------------------

type createHouseholdRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := s.svc.Households.Create(r.Context(), &models.Household{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create household")
		s.respondError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	household, err := s.svc.Households.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get household")
		s.respondError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		s.respondError(w, http.StatusNotFound, "household not found")
		return
	}

	s.respondJSON(w, http.StatusOK, household)
}

func (s *Server) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req createHouseholdRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := s.svc.Households.GetByID(r.Context(), id)
	if err != nil || household == nil {
		s.respondError(w, http.StatusNotFound, "household not found")
		return
	}

	household.Name = strings.TrimSpace(req.Name)
	updated, err := s.svc.Households.Update(r.Context(), household)
	if err != nil {
		s.logger.WithError(err).Error("failed to update household")
		s.respondError(w, http.StatusInternalServerError, "failed to update household")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

type createMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Color string `json:"color"`
	Role  string `json:"role"`
}

func (s *Server) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	members, err := s.svc.Members.GetByHousehold(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get members")
		s.respondError(w, http.StatusInternalServerError, "failed to get members")
		return
	}

	s.respondJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.householdID(w, r)
	if !ok {
		return
	}

	var req createMemberRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	role := models.MemberRoleMember
	if req.Role != "" {
		role = models.MemberRole(req.Role)
		if role != models.MemberRoleAdmin && role != models.MemberRoleMember {
			s.respondError(w, http.StatusBadRequest, "role must be admin or member")
			return
		}
	}

	created, err := s.svc.Members.Create(r.Context(), &models.Member{
		HouseholdID: id,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Color:       strings.TrimSpace(req.Color),
		Role:        role,
		IsActive:    true,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create member")
		s.respondError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req createMemberRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	member, err := s.svc.Members.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get member")
		s.respondError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		s.respondError(w, http.StatusNotFound, "member not found")
		return
	}

	if strings.TrimSpace(req.Name) != "" {
		member.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		member.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Color != "" {
		member.Color = strings.TrimSpace(req.Color)
	}
	if req.Role != "" {
		role := models.MemberRole(req.Role)
		if role != models.MemberRoleAdmin && role != models.MemberRoleMember {
			s.respondError(w, http.StatusBadRequest, "role must be admin or member")
			return
		}
		member.Role = role
	}

	updated, err := s.svc.Members.Update(r.Context(), member)
	if err != nil {
		s.logger.WithError(err).Error("failed to update member")
		s.respondError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := s.svc.Members.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete member")
		s.respondError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
