package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"porchboard/internal/caching"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
)

var (
	ErrInvalidPlan  = errors.New("tier must be STARTER, PRO or PREMIER and interval monthly or yearly")
	ErrBadSignature = errors.New("invalid webhook signature")
)

// SubscriptionView is the admin-facing subscription snapshot: the
// locally mirrored tier plus the processor's latest record, if any.
type SubscriptionView struct {
	Tier         models.Tier          `json:"tier"`
	Plan         models.Plan          `json:"plan"`
	Subscription *stripe.Subscription `json:"subscription"`
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, cityID uuid.UUID, adminEmail string, tier models.Tier, interval string) (*CheckoutSession, error)
	Get(ctx context.Context, cityID uuid.UUID) (*SubscriptionView, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type subscriptionService struct {
	cityRepo      repositories.CityRepository
	billing       BillingClient
	cache         caching.CacheService
	webhookSecret string
}

func NewSubscriptionService(cityRepo repositories.CityRepository, billing BillingClient, cache caching.CacheService, webhookSecret string) SubscriptionService {
	return &subscriptionService{
		cityRepo:      cityRepo,
		billing:       billing,
		cache:         cache,
		webhookSecret: webhookSecret,
	}
}

// Subscribe creates (or reuses) the city's billing customer and opens
// a subscription-mode checkout session for the requested tier.
func (s *subscriptionService) Subscribe(ctx context.Context, cityID uuid.UUID, adminEmail string, tier models.Tier, interval string) (*CheckoutSession, error) {
	if _, ok := models.PlanAmount(tier, interval); !ok {
		return nil, ErrInvalidPlan
	}

	city, err := s.cityRepo.GetByID(ctx, cityID)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if city.StripeCustomerID != nil {
		customerID = *city.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.billing.CreateCustomer(ctx, adminEmail, cityID)
		if err != nil {
			return nil, err
		}
		if err := s.cityRepo.SetStripeCustomerID(ctx, cityID, customerID); err != nil {
			return nil, err
		}
	}

	return s.billing.CreateCheckoutSession(ctx, customerID, cityID, tier, interval)
}

func (s *subscriptionService) Get(ctx context.Context, cityID uuid.UUID) (*SubscriptionView, error) {
	city, err := s.cityRepo.GetByID(ctx, cityID)
	if err != nil {
		return nil, err
	}

	view := &SubscriptionView{
		Tier: city.SubscriptionTier,
		Plan: models.Plans[city.SubscriptionTier],
	}

	if city.StripeCustomerID != nil {
		sub, err := s.billing.LatestSubscription(ctx, *city.StripeCustomerID)
		if err != nil {
			return nil, err
		}
		view.Subscription = sub
	}
	return view, nil
}

// HandleWebhook verifies the processor's signature over the raw
// payload, then applies the notification. Delivery is at-least-once, so
// applying a checkout completion twice must converge: the tier write is
// a plain overwrite, which is naturally idempotent. Unrecognized event
// types are acknowledged without action.
func (s *subscriptionService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return ErrBadSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.applyCheckoutCompleted(ctx, event)
	case "invoice.payment_failed":
		// Acknowledged only; no local state changes on failed payment.
		log.Printf("payment failed notification received: %s", event.ID)
		return nil
	default:
		return nil
	}
}

func (s *subscriptionService) applyCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	cityID, err := uuid.Parse(sess.Metadata["city_id"])
	if err != nil {
		return fmt.Errorf("checkout session %s has no usable city_id metadata", sess.ID)
	}
	tier := models.Tier(sess.Metadata["tier"])
	if !tier.Valid() {
		return fmt.Errorf("checkout session %s has no usable tier metadata", sess.ID)
	}

	if err := s.cityRepo.UpdateTier(ctx, cityID, tier); err != nil {
		return err
	}

	// The public board serves tier-dependent branding from cache.
	if city, err := s.cityRepo.GetByID(ctx, cityID); err == nil {
		if err := s.cache.DeleteCityByDomain(ctx, city.Domain); err != nil {
			log.Printf("WARN: failed to invalidate city cache %s: %v", city.Domain, err)
		}
	}
	return nil
}
