package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"porchboard/internal/models"
)

var eventRowColumns = []string{
	"id", "city_id", "creator_id", "title", "description", "start_time", "end_time",
	"location", "category", "external_link", "images", "status", "recurrence",
	"created_at", "updated_at",
}

type EventRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    EventRepository
	cityID  uuid.UUID
	context context.Context
}

func (suite *EventRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewEventRepo(mock)
	suite.cityID = uuid.New()
	suite.context = context.Background()
}

func (suite *EventRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestEventRepoTestSuite(t *testing.T) {
	suite.Run(t, new(EventRepoTestSuite))
}

func (suite *EventRepoTestSuite) testEvent() *models.Event {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:          uuid.New(),
		CityID:      suite.cityID,
		CreatorID:   uuid.New(),
		Title:       "Farmers Market",
		Description: "Weekly market on the town square.",
		StartTime:   start,
		EndTime:     start.Add(4 * time.Hour),
		Location:    models.Location{Address: "1 Town Square", City: "Springfield"},
		Category:    "market",
		Images:      []string{},
		Status:      models.StatusPending,
	}
}

func (suite *EventRepoTestSuite) eventRow(event *models.Event) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(eventRowColumns).AddRow(
		event.ID, event.CityID, event.CreatorID, event.Title, event.Description,
		event.StartTime, event.EndTime, event.Location, event.Category, event.ExternalLink,
		event.Images, event.Status, event.Recurrence, now, now)
}

func (suite *EventRepoTestSuite) TestCreate() {
	event := suite.testEvent()

	suite.mock.ExpectExec(`INSERT INTO events`).
		WithArgs(event.ID, event.CityID, event.CreatorID, event.Title, event.Description,
			event.StartTime, event.EndTime, event.Location, event.Category,
			event.ExternalLink, event.Images, event.Status, event.Recurrence).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, event)
	assert.NoError(suite.T(), err)
}

func (suite *EventRepoTestSuite) TestGetByID() {
	event := suite.testEvent()

	suite.mock.ExpectQuery(`SELECT .+ FROM events WHERE id = \$1`).
		WithArgs(event.ID).
		WillReturnRows(suite.eventRow(event))

	got, err := suite.repo.GetByID(suite.context, event.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), event.Title, got.Title)
	assert.Equal(suite.T(), event.Location.Address, got.Location.Address)
}

func (suite *EventRepoTestSuite) TestUpdateStatus_ReturnsUpdatedRow() {
	event := suite.testEvent()
	event.Status = models.StatusApproved

	suite.mock.ExpectQuery(`UPDATE events\s+SET status = \$1, updated_at = NOW\(\)\s+WHERE id = \$2\s+RETURNING`).
		WithArgs(models.StatusApproved, event.ID).
		WillReturnRows(suite.eventRow(event))

	got, err := suite.repo.UpdateStatus(suite.context, event.ID, models.StatusApproved)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusApproved, got.Status)
}

func (suite *EventRepoTestSuite) TestList_CityOnly() {
	event := suite.testEvent()

	suite.mock.ExpectQuery(`SELECT .+ FROM events WHERE city_id = \$1 ORDER BY start_time ASC`).
		WithArgs(suite.cityID).
		WillReturnRows(suite.eventRow(event))

	events, err := suite.repo.List(suite.context, EventFilter{CityID: suite.cityID})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), events, 1)
}

func (suite *EventRepoTestSuite) TestList_AllFiltersNumberedInOrder() {
	event := suite.testEvent()
	category := "market"
	status := models.StatusApproved
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	search := "farmers"

	suite.mock.ExpectQuery(`WHERE city_id = \$1 AND category = \$2 AND status = \$3 AND start_time >= \$4 AND end_time <= \$5 AND \(title ILIKE \$6 OR description ILIKE \$6\)`).
		WithArgs(suite.cityID, category, status, start, end, "%farmers%").
		WillReturnRows(suite.eventRow(event))

	events, err := suite.repo.List(suite.context, EventFilter{
		CityID:    suite.cityID,
		Category:  &category,
		Status:    &status,
		StartDate: &start,
		EndDate:   &end,
		Search:    &search,
	})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), events, 1)
}

func (suite *EventRepoTestSuite) TestList_SearchOnly() {
	event := suite.testEvent()
	search := "market"

	suite.mock.ExpectQuery(`WHERE city_id = \$1 AND \(title ILIKE \$2 OR description ILIKE \$2\)`).
		WithArgs(suite.cityID, "%market%").
		WillReturnRows(suite.eventRow(event))

	events, err := suite.repo.List(suite.context, EventFilter{CityID: suite.cityID, Search: &search})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), events, 1)
}

func (suite *EventRepoTestSuite) TestList_SearchEscapesWildcards() {
	event := suite.testEvent()
	search := `100%_off\`

	// % and _ in the term match literally instead of acting as
	// ILIKE wildcards.
	suite.mock.ExpectQuery(`WHERE city_id = \$1 AND \(title ILIKE \$2 OR description ILIKE \$2\)`).
		WithArgs(suite.cityID, `%100\%\_off\\%`).
		WillReturnRows(suite.eventRow(event))

	events, err := suite.repo.List(suite.context, EventFilter{CityID: suite.cityID, Search: &search})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), events, 1)
}

func (suite *EventRepoTestSuite) TestCountByStatus() {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\),\s+COUNT\(\*\) FILTER \(WHERE status = 'APPROVED'\)`).
		WithArgs(suite.cityID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"total", "approved", "rejected", "flagged"}).
			AddRow(12, 9, 2, 1))

	analytics, err := suite.repo.CountByStatus(suite.context, suite.cityID, start, end)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12, analytics.TotalEvents)
	assert.Equal(suite.T(), 9, analytics.ApprovedEvents)
	assert.Equal(suite.T(), 2, analytics.RejectedEvents)
	assert.Equal(suite.T(), 1, analytics.FlaggedEvents)
	assert.Equal(suite.T(), start, analytics.Period.Start)
}
