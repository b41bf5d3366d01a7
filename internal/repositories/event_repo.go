package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"porchboard/internal/models"
)

// EventFilter is the typed optional-filter set for event listings.
// CityID is required; every other field narrows the result when set.
type EventFilter struct {
	CityID    uuid.UUID
	Category  *string
	Status    *models.EventStatus
	StartDate *time.Time
	EndDate   *time.Time
	Search    *string
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) (*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)
	CountByStatus(ctx context.Context, cityID uuid.UUID, start, end time.Time) (*models.CityAnalytics, error)
}

type eventRepo struct {
	db DB
}

func NewEventRepo(db DB) EventRepository {
	return &eventRepo{db: db}
}

const eventColumns = `id, city_id, creator_id, title, description, start_time, end_time, location, category, external_link, images, status, recurrence, created_at, updated_at`

func (r *eventRepo) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, city_id, creator_id, title, description, start_time, end_time, location, category, external_link, images, status, recurrence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		event.ID, event.CityID, event.CreatorID, event.Title, event.Description,
		event.StartTime, event.EndTime, event.Location, event.Category,
		event.ExternalLink, event.Images, event.Status, event.Recurrence)
	return err
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanEvent(r.db.QueryRow(ctx, query, id))
}

func (r *eventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) (*models.Event, error) {
	query := `
		UPDATE events
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + eventColumns
	return r.scanEvent(r.db.QueryRow(ctx, query, status, id))
}

// likeEscaper neutralises the LIKE wildcards so a search term matches
// literally inside the ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *eventRepo) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	conditions := []string{"city_id = $1"}
	args := []any{filter.CityID}

	addArg := func(clauseFormat string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clauseFormat, len(args)))
	}

	if filter.Category != nil {
		addArg("category = $%d", *filter.Category)
	}
	if filter.Status != nil {
		addArg("status = $%d", *filter.Status)
	}
	if filter.StartDate != nil {
		addArg("start_time >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		addArg("end_time <= $%d", *filter.EndDate)
	}
	if filter.Search != nil {
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.ID, &event.CityID, &event.CreatorID, &event.Title, &event.Description,
			&event.StartTime, &event.EndTime, &event.Location, &event.Category, &event.ExternalLink,
			&event.Images, &event.Status, &event.Recurrence, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *eventRepo) CountByStatus(ctx context.Context, cityID uuid.UUID, start, end time.Time) (*models.CityAnalytics, error) {
	analytics := &models.CityAnalytics{
		Period: models.AnalyticsPeriod{Start: start, End: end},
	}
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'APPROVED'),
		       COUNT(*) FILTER (WHERE status = 'REJECTED'),
		       COUNT(*) FILTER (WHERE status = 'FLAGGED')
		FROM events
		WHERE city_id = $1 AND created_at >= $2 AND created_at <= $3
	`
	err := r.db.QueryRow(ctx, query, cityID, start, end).Scan(
		&analytics.TotalEvents, &analytics.ApprovedEvents, &analytics.RejectedEvents, &analytics.FlaggedEvents)
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *eventRepo) scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(&event.ID, &event.CityID, &event.CreatorID, &event.Title, &event.Description,
		&event.StartTime, &event.EndTime, &event.Location, &event.Category, &event.ExternalLink,
		&event.Images, &event.Status, &event.Recurrence, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return event, nil
}
