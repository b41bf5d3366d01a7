package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/middleware"
	"porchboard/internal/models"
	"porchboard/internal/services"
)

// CityHandlers handles city board creation, branding, lookup and
// analytics.
type CityHandlers struct {
	cityService services.CityService
}

func NewCityHandlers(cityService services.CityService) *CityHandlers {
	return &CityHandlers{cityService: cityService}
}

type CreateCityRequest struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Branding struct {
		PrimaryColor   string `json:"primaryColor"`
		SecondaryColor string `json:"secondaryColor"`
		Font           string `json:"font"`
		FooterText     string `json:"footerText"`
	} `json:"branding"`
	SubscriptionTier string `json:"subscriptionTier"`
}

// Create handles POST /api/cities. Unauthenticated: a city must exist
// before its first admin can register into it.
func (h *CityHandlers) Create(c echo.Context) error {
	var req CreateCityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if len(req.Name) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must be at least 2 characters")
	}
	if len(req.Domain) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "Domain must be at least 3 characters")
	}
	tier := models.Tier(req.SubscriptionTier)
	if !tier.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Subscription tier must be STARTER, PRO or PREMIER")
	}

	city, err := h.cityService.Create(c.Request().Context(), services.CreateCityRequest{
		Name:   req.Name,
		Domain: req.Domain,
		Branding: models.Branding{
			PrimaryColor:   req.Branding.PrimaryColor,
			SecondaryColor: req.Branding.SecondaryColor,
			Font:           req.Branding.Font,
			FooterText:     req.Branding.FooterText,
		},
		SubscriptionTier: tier,
	})
	if errors.Is(err, services.ErrCityExists) {
		return echo.NewHTTPError(http.StatusBadRequest, "City with this domain or name already exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create city")
	}

	return common.JSONSuccess(c, http.StatusCreated, city)
}

// UpdateBranding handles PATCH /api/cities/:id/branding. Multipart
// body with branding fields and an optional logo file.
func (h *CityHandlers) UpdateBranding(c echo.Context) error {
	ctx := c.Request().Context()

	cityID, err := common.ValidateUUIDParam(c.Param("id"), "city id")
	if err != nil {
		return err
	}

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	if err := middleware.RequireSameTenant(identity, cityID); err != nil {
		return err
	}

	update := services.BrandingUpdate{
		PrimaryColor:   c.FormValue("primaryColor"),
		SecondaryColor: c.FormValue("secondaryColor"),
		Font:           c.FormValue("font"),
		FooterText:     c.FormValue("footerText"),
	}

	if file, err := c.FormFile("logo"); err == nil {
		if file.Size > services.MaxLogoSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Logo exceeds the 5MB limit")
		}
		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open logo file")
		}
		defer src.Close()

		update.LogoReader = src
		update.LogoSize = file.Size
		update.LogoFilename = file.Filename
		update.LogoContentType = file.Header.Get("Content-Type")
	}

	city, err := h.cityService.UpdateBranding(ctx, cityID, update)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "City not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update branding")
	}

	return common.JSONSuccess(c, http.StatusOK, city)
}

// GetByDomain handles GET /api/cities/domain/:domain, the public
// board lookup.
func (h *CityHandlers) GetByDomain(c echo.Context) error {
	city, err := h.cityService.GetByDomain(c.Request().Context(), c.Param("domain"))
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "City not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to look up city")
	}

	return common.JSONSuccess(c, http.StatusOK, city)
}

// Analytics handles GET /api/cities/:id/analytics?startDate&endDate
func (h *CityHandlers) Analytics(c echo.Context) error {
	ctx := c.Request().Context()

	cityID, err := common.ValidateUUIDParam(c.Param("id"), "city id")
	if err != nil {
		return err
	}

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	if err := middleware.RequireSameTenant(identity, cityID); err != nil {
		return err
	}

	start, err := common.ParseTimeParam(c.QueryParam("startDate"), "startDate")
	if err != nil {
		return err
	}
	end, err := common.ParseTimeParam(c.QueryParam("endDate"), "endDate")
	if err != nil {
		return err
	}
	if start == nil || end == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate and endDate are required")
	}

	analytics, err := h.cityService.Analytics(ctx, cityID, *start, *end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}

	return common.JSONSuccess(c, http.StatusOK, analytics)
}
