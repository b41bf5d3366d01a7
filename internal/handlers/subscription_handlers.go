package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
	"porchboard/internal/services"
)

// SubscriptionHandlers handles checkout initiation, the processor's
// webhook, and the subscription snapshot.
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
	userRepo            repositories.UserRepository
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService, userRepo repositories.UserRepository) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		userRepo:            userRepo,
	}
}

type SubscribeRequest struct {
	Tier     string `json:"tier"`
	Interval string `json:"interval"`
}

// Subscribe handles POST /api/subscriptions
func (h *SubscriptionHandlers) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	// The checkout customer carries the initiating admin's email.
	admin, err := h.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	session, err := h.subscriptionService.Subscribe(ctx, identity.CityID, admin.Email, models.Tier(req.Tier), req.Interval)
	if errors.Is(err, services.ErrInvalidPlan) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "City not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create checkout session")
	}

	return common.JSONSuccess(c, http.StatusOK, session)
}

// Webhook handles POST /api/subscriptions/webhook. The processor
// authenticates with a signature over the raw body instead of a bearer
// token; delivery is at-least-once.
func (h *SubscriptionHandlers) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing webhook signature")
	}

	err = h.subscriptionService.HandleWebhook(c.Request().Context(), payload, sigHeader)
	if errors.Is(err, services.ErrBadSignature) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook signature")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process webhook")
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// Get handles GET /api/subscriptions
func (h *SubscriptionHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	view, err := h.subscriptionService.Get(ctx, identity.CityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "City not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load subscription")
	}

	return common.JSONSuccess(c, http.StatusOK, view)
}
