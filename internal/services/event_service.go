package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"porchboard/internal/models"
	"porchboard/internal/repositories"
)

const minFlagReasonLength = 10

var (
	ErrInvalidModerationTarget = errors.New("status must be APPROVED or REJECTED")
	ErrReasonTooShort          = errors.New("reason must be at least 10 characters")
)

// EventImage is one uploaded image attached to a new event.
type EventImage struct {
	Filename    string
	Reader      io.Reader
	Size        int64
	ContentType string
}

type CreateEventRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Location     models.Location    `json:"location"`
	Category     string             `json:"category"`
	ExternalLink *string            `json:"external_link,omitempty"`
	Recurrence   *models.Recurrence `json:"recurrence,omitempty"`
}

// Validate applies the field constraints shared by all creators.
func (r CreateEventRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if len(title) < 3 || len(title) > 100 {
		return fmt.Errorf("title must be between 3 and 100 characters")
	}
	if len(strings.TrimSpace(r.Description)) < 10 {
		return fmt.Errorf("description must be at least 10 characters")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end_time must not be before start_time")
	}
	if strings.TrimSpace(r.Location.Address) == "" {
		return fmt.Errorf("location address is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if r.Recurrence != nil && !r.Recurrence.Valid() {
		return fmt.Errorf("recurrence frequency must be DAILY, WEEKLY, MONTHLY or YEARLY with interval >= 1")
	}
	return nil
}

type EventService interface {
	Create(ctx context.Context, cityID, creatorID uuid.UUID, creatorRole models.Role, req CreateEventRequest, images []EventImage) (*models.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error)
	Moderate(ctx context.Context, id uuid.UUID, target models.EventStatus) (*models.Event, error)
	Flag(ctx context.Context, id uuid.UUID, reason string) (*models.Event, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
	storage   StorageService
}

func NewEventService(eventRepo repositories.EventRepository, storage StorageService) EventService {
	return &eventService{
		eventRepo: eventRepo,
		storage:   storage,
	}
}

// Create uploads the images and persists the event. The initial status
// follows the creator's role: admins publish directly, event creators
// enter the moderation queue. Uploaded objects are not rolled back if
// the insert fails.
func (s *eventService) Create(ctx context.Context, cityID, creatorID uuid.UUID, creatorRole models.Role, req CreateEventRequest, images []EventImage) (*models.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	imageURLs := make([]string, 0, len(images))
	for _, img := range images {
		objectName := fmt.Sprintf("events/%d-%s", time.Now().UnixMilli(), img.Filename)
		url, err := s.storage.Upload(ctx, objectName, img.Reader, img.Size, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", img.Filename, err)
		}
		imageURLs = append(imageURLs, url)
	}

	event := &models.Event{
		ID:           uuid.New(),
		CityID:       cityID,
		CreatorID:    creatorID,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
		Category:     req.Category,
		ExternalLink: req.ExternalLink,
		Images:       imageURLs,
		Status:       models.InitialStatus(creatorRole),
		Recurrence:   req.Recurrence,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) List(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	return s.eventRepo.List(ctx, filter)
}

// Moderate applies an approve/reject decision. Any other target status
// is rejected before touching the event.
func (s *eventService) Moderate(ctx context.Context, id uuid.UUID, target models.EventStatus) (*models.Event, error) {
	if !models.ModerationTarget(target) {
		return nil, ErrInvalidModerationTarget
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanModerate(event.Status, target) {
		return nil, ErrInvalidModerationTarget
	}

	return s.eventRepo.UpdateStatus(ctx, id, target)
}

// Flag is the public report path: any caller may flag any event given
// a reason of minimum length. It is not a moderation decision and does
// not require a tenant match.
func (s *eventService) Flag(ctx context.Context, id uuid.UUID, reason string) (*models.Event, error) {
	if len(strings.TrimSpace(reason)) < minFlagReasonLength {
		return nil, ErrReasonTooShort
	}
	return s.eventRepo.UpdateStatus(ctx, id, models.StatusFlagged)
}
