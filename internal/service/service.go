package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/recurrence"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/storage"
)

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	db     *sql.DB
	logger *logrus.Logger
	store  *storage.DiskStore

	Households      repository.HouseholdRepository
	Members         repository.MemberRepository
	Events          repository.EventRepository
	CalendarSources repository.CalendarSourceRepository
	Chores          repository.ChoreRepository
	Assignments     repository.ChoreAssignmentRepository
	Displays        repository.DisplayRepository
	Photos          repository.PhotoRepository
	PhotoSources    repository.PhotoSourceRepository
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger, store *storage.DiskStore,
	households repository.HouseholdRepository,
	members repository.MemberRepository,
	events repository.EventRepository,
	calendarSources repository.CalendarSourceRepository,
	chores repository.ChoreRepository,
	assignments repository.ChoreAssignmentRepository,
	displays repository.DisplayRepository,
	photos repository.PhotoRepository,
	photoSources repository.PhotoSourceRepository,
) *Service {
	return &Service{
		db: db, logger: logger, store: store,
		Households: households, Members: members, Events: events,
		CalendarSources: calendarSources, Chores: chores, Assignments: assignments,
		Displays: displays, Photos: photos, PhotoSources: photoSources,
	}
}

// EnsureMember retrieves an existing household member by email, or creates a
// new one if not found. If the member exists but their name has changed, the
// record is updated.
func (s *Service) EnsureMember(ctx context.Context, householdID int64, email, name string) (*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	member, err := s.Members.GetByEmail(ctx, householdID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup member (email=%s): %w", email, err)
	}
	if member == nil {
		member = &models.Member{
			HouseholdID: householdID,
			Email:       email,
			Name:        name,
			Role:        models.MemberRoleMember,
			IsActive:    true,
		}
		member, err = s.Members.Create(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("failed to create member (email=%s): %w", email, err)
		}
		s.logger.Infof("Created new member: %s (household_id=%d)", name, householdID)
		return member, nil
	}

	if name != "" && member.Name != name {
		member.Name = name
		member, err = s.Members.Update(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("failed to update member %d: %w", member.ID, err)
		}
		s.logger.Infof("Updated member name to %q (member_id=%d)", name, member.ID)
	}

	return member, nil
}

// ---- Displays ----

// NewDisplayToken generates the 32-byte random hex credential a kiosk
// presents as its bearer token.
func NewDisplayToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate display token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RegisterDisplay creates a kiosk record with default settings and a fresh
// auth token. The token is returned on the display record; afterwards it can
// only be rotated, never read back.
func (s *Service) RegisterDisplay(ctx context.Context, householdID int64, name string) (*models.Display, error) {
	token, err := NewDisplayToken()
	if err != nil {
		return nil, err
	}
	settings, err := models.DefaultDisplaySettings().Encode()
	if err != nil {
		return nil, err
	}

	display := &models.Display{
		HouseholdID: householdID,
		Name:        name,
		AuthToken:   token,
		Settings:    settings,
	}
	display, err = s.Displays.Create(ctx, display)
	if err != nil {
		return nil, fmt.Errorf("failed to register display: %w", err)
	}
	s.logger.Infof("Registered display %q (id=%d) for household %d", name, display.ID, householdID)
	return display, nil
}

// RotateDisplayToken replaces the kiosk credential without deleting the
// display record, invalidating the previous token immediately.
func (s *Service) RotateDisplayToken(ctx context.Context, id int64) (string, error) {
	token, err := NewDisplayToken()
	if err != nil {
		return "", err
	}
	if err := s.Displays.UpdateToken(ctx, id, token); err != nil {
		return "", fmt.Errorf("failed to rotate token for display %d: %w", id, err)
	}
	s.logger.Infof("Rotated auth token for display %d", id)
	return token, nil
}

// AuthenticateDisplay resolves a kiosk bearer token to its display record.
// Returns nil without error when the token is unknown.
func (s *Service) AuthenticateDisplay(ctx context.Context, token string) (*models.Display, error) {
	if token == "" {
		return nil, nil
	}
	display, err := s.Displays.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up display token: %w", err)
	}
	if display == nil {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(display.AuthToken), []byte(token)) != 1 {
		return nil, nil
	}
	return display, nil
}

// Heartbeat records that a display checked in.
func (s *Service) Heartbeat(ctx context.Context, displayID int64) error {
	return s.Displays.Touch(ctx, displayID, time.Now())
}

// ---- Photos ----

// PhotoQuota reports a household's storage consumption against its limit.
func (s *Service) PhotoQuota(ctx context.Context, householdID int64) (storage.Quota, error) {
	used, err := s.Photos.TotalSizeByHousehold(ctx, householdID)
	if err != nil {
		return storage.Quota{}, fmt.Errorf("failed to compute storage usage for household %d: %w", householdID, err)
	}
	return storage.NewQuota(used), nil
}

// UploadPhoto stores an upload on disk and records it, enforcing the
// household quota against the declared size before any bytes are written.
func (s *Service) UploadPhoto(ctx context.Context, householdID int64, r io.Reader, contentType string, declaredSize int64) (*models.Photo, error) {
	quota, err := s.PhotoQuota(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if err := quota.CheckUpload(declaredSize); err != nil {
		return nil, err
	}

	path, size, err := s.store.Save(r, contentType)
	if err != nil {
		return nil, err
	}
	if err := quota.CheckUpload(size); err != nil {
		// The declared size undershot the actual payload.
		if derr := s.store.Delete(path); derr != nil {
			s.logger.WithError(derr).Warn("failed to remove over-quota upload")
		}
		return nil, err
	}

	photo := &models.Photo{
		HouseholdID: householdID,
		StoragePath: path,
		SizeBytes:   size,
		ContentType: contentType,
		Enabled:     true,
	}
	photo, err = s.Photos.Create(ctx, photo)
	if err != nil {
		if derr := s.store.Delete(path); derr != nil {
			s.logger.WithError(derr).Warn("failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}
	return photo, nil
}

// DeletePhoto removes the record and its backing file. A missing file is not
// an error, only the database row matters for the quota.
func (s *Service) DeletePhoto(ctx context.Context, photo *models.Photo) error {
	if err := s.Photos.Delete(ctx, photo.ID); err != nil {
		return err
	}
	if err := s.store.Delete(photo.StoragePath); err != nil {
		s.logger.WithError(err).WithField("photo_id", photo.ID).Warn("failed to remove photo file")
	}
	return nil
}

// OpenPhoto opens the stored file for a photo record.
func (s *Service) OpenPhoto(photo *models.Photo) (io.ReadCloser, error) {
	return s.store.Open(photo.StoragePath)
}

// ---- Chores ----

// CompleteAssignment marks an assignment done. When the chore repeats, the
// next occurrence is scheduled immediately so the board never runs dry.
func (s *Service) CompleteAssignment(ctx context.Context, id int64) (*models.ChoreAssignment, error) {
	assignment, err := s.Assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, nil
	}
	if assignment.IsCompleted() {
		return assignment, nil
	}

	now := time.Now()
	assignment.CompletedAt = &now
	assignment, err = s.Assignments.Update(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to complete assignment %d: %w", id, err)
	}

	if assignment.Chore != nil && assignment.Chore.Recurrence != "" {
		if err := s.scheduleNextAssignment(ctx, assignment); err != nil {
			// The completion itself succeeded; log and move on.
			s.logger.WithError(err).WithField("assignment_id", id).
				Error("failed to schedule next chore occurrence")
		}
	}
	return assignment, nil
}

func (s *Service) scheduleNextAssignment(ctx context.Context, done *models.ChoreAssignment) error {
	rule, err := recurrence.Parse(done.Chore.Recurrence)
	if err != nil {
		return fmt.Errorf("chore %d has an invalid recurrence rule: %w", done.ChoreID, err)
	}
	next, ok, err := rule.Next(done.DueDate)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = s.Assignments.Create(ctx, &models.ChoreAssignment{
		ChoreID:  done.ChoreID,
		MemberID: done.MemberID,
		DueDate:  next,
	})
	if err != nil {
		return fmt.Errorf("failed to create next assignment for chore %d: %w", done.ChoreID, err)
	}
	s.logger.Infof("Scheduled next occurrence of chore %d for %s", done.ChoreID, next.Format("2006-01-02"))
	return nil
}
