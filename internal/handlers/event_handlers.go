package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/middleware"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
	"porchboard/internal/services"
)

// EventHandlers handles event submission, listing, moderation and the
// public flag path.
type EventHandlers struct {
	eventService services.EventService
}

func NewEventHandlers(eventService services.EventService) *EventHandlers {
	return &EventHandlers{eventService: eventService}
}

// Create handles POST /api/events. Multipart body with the event
// fields plus up to 5 images. The event lands in the caller's own
// city; the initial status depends on the caller's role.
func (h *EventHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	req, err := parseEventForm(c)
	if err != nil {
		return err
	}

	images, err := collectEventImages(c)
	if err != nil {
		return err
	}
	defer closeEventImages(images)

	event, err := h.eventService.Create(ctx, identity.CityID, identity.UserID, identity.Role, req, images)
	if err != nil {
		if errors.As(err, new(*echo.HTTPError)) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return common.JSONSuccess(c, http.StatusCreated, event)
}

func parseEventForm(c echo.Context) (services.CreateEventRequest, error) {
	var req services.CreateEventRequest

	req.Title = c.FormValue("title")
	req.Description = c.FormValue("description")
	req.Category = c.FormValue("category")

	start, err := common.ParseTimeParam(c.FormValue("startTime"), "startTime")
	if err != nil {
		return req, err
	}
	end, err := common.ParseTimeParam(c.FormValue("endTime"), "endTime")
	if err != nil {
		return req, err
	}
	if start == nil || end == nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "startTime and endTime are required")
	}
	req.StartTime = *start
	req.EndTime = *end

	if locJSON := c.FormValue("location"); locJSON != "" {
		if err := json.Unmarshal([]byte(locJSON), &req.Location); err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "location must be a JSON object")
		}
	}
	if recJSON := c.FormValue("recurrence"); recJSON != "" {
		req.Recurrence = &models.Recurrence{}
		if err := json.Unmarshal([]byte(recJSON), req.Recurrence); err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "recurrence must be a JSON object")
		}
	}
	if link := strings.TrimSpace(c.FormValue("externalLink")); link != "" {
		req.ExternalLink = &link
	}

	return req, nil
}

func collectEventImages(c echo.Context) ([]services.EventImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// JSON-only submissions carry no images.
		return nil, nil
	}

	files := form.File["images"]
	if len(files) > services.MaxEventImages {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "At most 5 images per event")
	}

	images := make([]services.EventImage, 0, len(files))
	for _, file := range files {
		if file.Size > services.MaxEventImageSize {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Each image must be at most 15MB")
		}
		src, err := file.Open()
		if err != nil {
			closeEventImages(images)
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded image")
		}
		images = append(images, services.EventImage{
			Filename:    file.Filename,
			Reader:      src,
			Size:        file.Size,
			ContentType: file.Header.Get("Content-Type"),
		})
	}
	return images, nil
}

// closeEventImages releases the multipart file handles once the upload
// has been consumed.
func closeEventImages(images []services.EventImage) {
	for _, img := range images {
		if closer, ok := img.Reader.(io.Closer); ok {
			closer.Close()
		}
	}
}

// List handles GET /api/events?cityId&category&status&startDate&endDate&search
func (h *EventHandlers) List(c echo.Context) error {
	cityID, err := common.ValidateUUIDParam(c.QueryParam("cityId"), "cityId")
	if err != nil {
		return err
	}

	filter := repositories.EventFilter{CityID: cityID}

	if category := c.QueryParam("category"); category != "" {
		filter.Category = &category
	}
	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := models.EventStatus(statusParam)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown event status")
		}
		filter.Status = &status
	}
	if filter.StartDate, err = common.ParseTimeParam(c.QueryParam("startDate"), "startDate"); err != nil {
		return err
	}
	if filter.EndDate, err = common.ParseTimeParam(c.QueryParam("endDate"), "endDate"); err != nil {
		return err
	}
	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	events, err := h.eventService.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list events")
	}

	return common.JSONSuccess(c, http.StatusOK, events)
}

type ModerateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/events/:id/status, the moderation
// decision. Only APPROVED and REJECTED are legal inputs.
func (h *EventHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	eventID, err := common.ValidateUUIDParam(c.Param("id"), "event id")
	if err != nil {
		return err
	}

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req ModerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	target := models.EventStatus(req.Status)
	if !models.ModerationTarget(target) {
		return echo.NewHTTPError(http.StatusBadRequest, "Status must be APPROVED or REJECTED")
	}

	event, err := h.eventService.GetByID(ctx, eventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load event")
	}

	if err := middleware.RequireSameTenant(identity, event.CityID); err != nil {
		return err
	}

	updated, err := h.eventService.Moderate(ctx, eventID, target)
	if errors.Is(err, services.ErrInvalidModerationTarget) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update event status")
	}

	return common.JSONSuccess(c, http.StatusOK, updated)
}

type FlagRequest struct {
	Reason string `json:"reason"`
}

// Flag handles POST /api/events/:id/flag, a public report mechanism
// open to anonymous callers from any city.
func (h *EventHandlers) Flag(c echo.Context) error {
	eventID, err := common.ValidateUUIDParam(c.Param("id"), "event id")
	if err != nil {
		return err
	}

	var req FlagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	event, err := h.eventService.Flag(c.Request().Context(), eventID, req.Reason)
	if errors.Is(err, services.ErrReasonTooShort) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to flag event")
	}

	return common.JSONSuccess(c, http.StatusOK, event)
}
