package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"porchboard/internal/caching"
	"porchboard/internal/common"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
)

// ErrCityExists is returned when a new city collides on slug or domain.
var ErrCityExists = errors.New("city with this domain or name already exists")

const cityCacheTTL = 5 * time.Minute

type CreateCityRequest struct {
	Name             string          `json:"name"`
	Domain           string          `json:"domain"`
	Branding         models.Branding `json:"branding"`
	SubscriptionTier models.Tier     `json:"subscription_tier"`
}

type BrandingUpdate struct {
	PrimaryColor   string
	SecondaryColor string
	Font           string
	FooterText     string

	// Logo upload; nil LogoReader keeps the current logo URL.
	LogoReader      io.Reader
	LogoSize        int64
	LogoFilename    string
	LogoContentType string
}

type CityService interface {
	Create(ctx context.Context, req CreateCityRequest) (*models.City, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetByDomain(ctx context.Context, domain string) (*models.City, error)
	UpdateBranding(ctx context.Context, id uuid.UUID, update BrandingUpdate) (*models.City, error)
	Analytics(ctx context.Context, cityID uuid.UUID, start, end time.Time) (*models.CityAnalytics, error)
}

type cityService struct {
	cityRepo  repositories.CityRepository
	eventRepo repositories.EventRepository
	storage   StorageService
	cache     caching.CacheService
}

func NewCityService(cityRepo repositories.CityRepository, eventRepo repositories.EventRepository, storage StorageService, cache caching.CacheService) CityService {
	return &cityService{
		cityRepo:  cityRepo,
		eventRepo: eventRepo,
		storage:   storage,
		cache:     cache,
	}
}

// Create registers a new city board. The slug is derived from the name,
// so two cities with the same name collide on the second attempt.
func (s *cityService) Create(ctx context.Context, req CreateCityRequest) (*models.City, error) {
	slug := common.GenerateSlug(req.Name)
	if slug == "" {
		return nil, fmt.Errorf("name must contain at least one alphanumeric character")
	}

	exists, err := s.cityRepo.SlugOrDomainExists(ctx, slug, req.Domain)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCityExists
	}

	city := &models.City{
		ID:               uuid.New(),
		Name:             req.Name,
		Slug:             slug,
		Domain:           req.Domain,
		Branding:         req.Branding,
		SubscriptionTier: req.SubscriptionTier,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := s.cityRepo.Create(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *cityService) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	return s.cityRepo.GetByID(ctx, id)
}

// GetByDomain serves the public board lookup through the cache.
func (s *cityService) GetByDomain(ctx context.Context, domain string) (*models.City, error) {
	if city, err := s.cache.GetCityByDomain(ctx, domain); err == nil {
		return city, nil
	}

	city, err := s.cityRepo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCityByDomain(ctx, city, cityCacheTTL); err != nil {
		log.Printf("WARN: failed to cache city %s: %v", domain, err)
	}
	return city, nil
}

func (s *cityService) UpdateBranding(ctx context.Context, id uuid.UUID, update BrandingUpdate) (*models.City, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logoURL := city.Branding.Logo
	if update.LogoReader != nil {
		objectName := fmt.Sprintf("cities/%s/logo-%d-%s", city.ID, time.Now().UnixMilli(), update.LogoFilename)
		logoURL, err = s.storage.Upload(ctx, objectName, update.LogoReader, update.LogoSize, update.LogoContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload logo: %w", err)
		}
	}

	branding := models.Branding{
		Logo:           logoURL,
		PrimaryColor:   update.PrimaryColor,
		SecondaryColor: update.SecondaryColor,
		Font:           update.Font,
		FooterText:     update.FooterText,
	}

	if err := s.cityRepo.UpdateBranding(ctx, id, branding); err != nil {
		return nil, err
	}

	if err := s.cache.DeleteCityByDomain(ctx, city.Domain); err != nil {
		log.Printf("WARN: failed to invalidate city cache %s: %v", city.Domain, err)
	}

	city.Branding = branding
	city.UpdatedAt = time.Now()
	return city, nil
}

// Analytics returns the moderation counts for a created-at window.
// The background job keeps an all-time entry warm per city; a request
// whose window covers that entry is served from cache, at most one
// refresh interval stale. Narrower windows hit the database.
func (s *cityService) Analytics(ctx context.Context, cityID uuid.UUID, start, end time.Time) (*models.CityAnalytics, error) {
	if cached, err := s.cache.GetCityAnalytics(ctx, cityID); err == nil {
		if !start.After(cached.Period.Start) && !end.Before(cached.Period.End) {
			return cached, nil
		}
	}

	return s.eventRepo.CountByStatus(ctx, cityID, start, end)
}
