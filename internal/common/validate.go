package common

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	slugStripper   = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdgeDashes = regexp.MustCompile(`(^-|-$)`)
)

// GenerateSlug derives a deterministic URL slug from a city name.
func GenerateSlug(name string) string {
	slug := slugStripper.ReplaceAllString(strings.ToLower(name), "-")
	return slugEdgeDashes.ReplaceAllString(slug, "")
}

// ValidateEmail reports whether the address has a plausible shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateUUIDParam parses a path parameter as a UUID, returning a 400
// echo error on failure.
func ValidateUUIDParam(idStr, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(idStr))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid %s format", fieldName))
	}
	return id, nil
}

// ParseTimeParam parses an optional RFC 3339 query parameter. An empty
// value yields a nil time without error.
func ParseTimeParam(value, fieldName string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be an RFC 3339 timestamp", fieldName))
	}
	return &t, nil
}

// ValidateRequiredString rejects blank required fields.
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}
