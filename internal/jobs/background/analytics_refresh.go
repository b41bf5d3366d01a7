package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"porchboard/internal/caching"
	"porchboard/internal/repositories"
)

const (
	refreshInterval = 15 * time.Minute
	refreshCacheTTL = 20 * time.Minute
)

// JobScheduler runs the periodic jobs: currently a per-city analytics
// cache refresh so admin dashboards read warm counts.
type JobScheduler struct {
	scheduler gocron.Scheduler
	cityRepo  repositories.CityRepository
	eventRepo repositories.EventRepository
	cache     caching.CacheService
}

func NewJobScheduler(cityRepo repositories.CityRepository, eventRepo repositories.EventRepository, cache caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		cityRepo:  cityRepo,
		eventRepo: eventRepo,
		cache:     cache,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(refreshInterval),
		gocron.NewTask(js.refreshAnalytics),
	)
	if err != nil {
		return nil, err
	}

	return js, nil
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Shutdown() error {
	return js.scheduler.Shutdown()
}

// refreshAnalytics recomputes the all-time moderation counts for every
// city and rewrites the cache. A failed city is logged and skipped.
func (js *JobScheduler) refreshAnalytics() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cityIDs, err := js.cityRepo.ListIDs(ctx)
	if err != nil {
		log.Printf("analytics refresh: failed to list cities: %v", err)
		return
	}

	start := time.Unix(0, 0)
	end := time.Now()

	for _, cityID := range cityIDs {
		analytics, err := js.eventRepo.CountByStatus(ctx, cityID, start, end)
		if err != nil {
			log.Printf("analytics refresh: city %s: %v", cityID, err)
			continue
		}
		if err := js.cache.SetCityAnalytics(ctx, cityID, analytics, refreshCacheTTL); err != nil {
			log.Printf("analytics refresh: cache write for city %s: %v", cityID, err)
		}
	}
}
