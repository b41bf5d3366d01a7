package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"

	"porchboard/internal/models"
)

// CheckoutSession is what an admin is redirected to after initiating a
// subscription purchase.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// BillingClient is the payment-processor surface the subscription
// service depends on.
type BillingClient interface {
	CreateCustomer(ctx context.Context, email string, cityID uuid.UUID) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID string, cityID uuid.UUID, tier models.Tier, interval string) (*CheckoutSession, error)
	LatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error)
}

type stripeClient struct {
	frontendURL string
}

// NewStripeClient configures the package-level Stripe key and returns
// a client scoped to the given frontend for redirect URLs.
func NewStripeClient(secretKey, frontendURL string) BillingClient {
	stripe.Key = secretKey
	return &stripeClient{frontendURL: strings.TrimSuffix(frontendURL, "/")}
}

func (c *stripeClient) CreateCustomer(ctx context.Context, email string, cityID uuid.UUID) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("city_id", cityID.String())

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create billing customer: %w", err)
	}
	return cust.ID, nil
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, customerID string, cityID uuid.UUID, tier models.Tier, interval string) (*CheckoutSession, error) {
	amount, ok := models.PlanAmount(tier, interval)
	if !ok {
		return nil, fmt.Errorf("no plan price for tier %s interval %s", tier, interval)
	}
	plan := models.Plans[tier]

	recurring := "month"
	if interval == "yearly" {
		recurring = "year"
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s Plan - %s", plan.Name, interval)),
						Description: stripe.String(strings.Join(plan.Features, ", ")),
					},
					UnitAmount: stripe.Int64(amount * 100), // cents
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(recurring),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.frontendURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.frontendURL + "/subscription/cancel"),
	}
	params.Context = ctx
	params.AddMetadata("city_id", cityID.String())
	params.AddMetadata("tier", string(tier))

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (c *stripeClient) LatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := stripesub.List(params)
	for iter.Next() {
		return iter.Subscription(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return nil, nil
}
