package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"porchboard/internal/models"
	"porchboard/internal/services"
)

type mockSubscriptionService struct {
	mock.Mock
}

func (m *mockSubscriptionService) Subscribe(ctx context.Context, cityID uuid.UUID, adminEmail string, tier models.Tier, interval string) (*services.CheckoutSession, error) {
	args := m.Called(ctx, cityID, adminEmail, tier, interval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckoutSession), args.Error(1)
}

func (m *mockSubscriptionService) Get(ctx context.Context, cityID uuid.UUID) (*services.SubscriptionView, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubscriptionView), args.Error(1)
}

func (m *mockSubscriptionService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	args := m.Called(ctx, payload, sigHeader)
	return args.Error(0)
}

func postWebhook(h *SubscriptionHandlers, body, sigHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/webhook", strings.NewReader(body))
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h.Webhook(c)
}

func TestWebhook_Received(t *testing.T) {
	svc := &mockSubscriptionService{}
	h := NewSubscriptionHandlers(svc, nil)
	body := `{"type":"checkout.session.completed"}`

	svc.On("HandleWebhook", mock.Anything, []byte(body), "t=1,v1=abc").Return(nil)

	rec, err := postWebhook(h, body, "t=1,v1=abc")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The webhook response is the processor's ack shape, not the
	// success envelope used everywhere else.
	var ack map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack["received"])
	svc.AssertExpectations(t)
}

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	svc := &mockSubscriptionService{}
	h := NewSubscriptionHandlers(svc, nil)

	_, err := postWebhook(h, `{"type":"checkout.session.completed"}`, "")

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_BadSignature(t *testing.T) {
	svc := &mockSubscriptionService{}
	h := NewSubscriptionHandlers(svc, nil)
	body := `{"type":"checkout.session.completed"}`

	svc.On("HandleWebhook", mock.Anything, []byte(body), "t=1,v1=forged").Return(services.ErrBadSignature)

	_, err := postWebhook(h, body, "t=1,v1=forged")

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
