package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"porchboard/internal/models"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

type CacheService interface {
	// Public board lookups
	GetCityByDomain(ctx context.Context, domain string) (*models.City, error)
	SetCityByDomain(ctx context.Context, city *models.City, ttl time.Duration) error
	DeleteCityByDomain(ctx context.Context, domain string) error

	// Analytics caching
	GetCityAnalytics(ctx context.Context, cityID uuid.UUID) (*models.CityAnalytics, error)
	SetCityAnalytics(ctx context.Context, cityID uuid.UUID, analytics *models.CityAnalytics, ttl time.Duration) error

	// Fixed-window rate limiting
	IncrementRequestCount(ctx context.Context, key string, window time.Duration) (int64, error)

	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept either host:port or a redis:// URL
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", err, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func cityDomainKey(domain string) string {
	return fmt.Sprintf("city:domain:%s", domain)
}

func cityAnalyticsKey(cityID uuid.UUID) string {
	return fmt.Sprintf("city:analytics:%s", cityID)
}

func (s *redisCacheService) GetCityByDomain(ctx context.Context, domain string) (*models.City, error) {
	data, err := s.client.Get(ctx, cityDomainKey(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	city := &models.City{}
	if err := json.Unmarshal(data, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *redisCacheService) SetCityByDomain(ctx context.Context, city *models.City, ttl time.Duration) error {
	data, err := json.Marshal(city)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cityDomainKey(city.Domain), data, ttl).Err()
}

func (s *redisCacheService) DeleteCityByDomain(ctx context.Context, domain string) error {
	return s.client.Del(ctx, cityDomainKey(domain)).Err()
}

func (s *redisCacheService) GetCityAnalytics(ctx context.Context, cityID uuid.UUID) (*models.CityAnalytics, error) {
	data, err := s.client.Get(ctx, cityAnalyticsKey(cityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	analytics := &models.CityAnalytics{}
	if err := json.Unmarshal(data, analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (s *redisCacheService) SetCityAnalytics(ctx context.Context, cityID uuid.UUID, analytics *models.CityAnalytics, ttl time.Duration) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cityAnalyticsKey(cityID), data, ttl).Err()
}

// IncrementRequestCount bumps the fixed-window counter for key and
// returns the new count. The window expiry is set only when the key is
// first created so the window does not slide.
func (s *redisCacheService) IncrementRequestCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *redisCacheService) Close() error {
	return s.client.Close()
}
