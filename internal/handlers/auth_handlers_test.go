package handlers

import (
	"context"
	"encoding/json"
	"fmt"
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

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req services.RegisterRequest) (*models.User, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *mockAuthService) GenerateToken(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) ValidateToken(tokenString string) (*services.TokenClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func postJSON(handler echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, handler(c)
}

func TestRegister_Success(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandlers(svc)
	cityID := uuid.New()
	user := &models.User{ID: uuid.New(), CityID: cityID, Email: "new@springfield.gov", Role: models.RoleEventCreator}

	svc.On("Register", mock.Anything, mock.MatchedBy(func(req services.RegisterRequest) bool {
		return req.Email == "new@springfield.gov" && req.CityID == cityID && req.Role == models.RoleEventCreator
	})).Return(user, "signed-token", nil)

	body := fmt.Sprintf(`{"email":"new@springfield.gov","password":"longenough","name":"Pat","cityId":%q,"role":"EVENT_CREATOR"}`, cityID)
	rec, err := postJSON(h.Register, body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "signed-token", envelope.Data.Token)
	svc.AssertExpectations(t)
}

func TestRegister_ValidationFailures(t *testing.T) {
	cityID := uuid.New().String()

	tests := []struct {
		name string
		body string
	}{
		{"bad email", fmt.Sprintf(`{"email":"nope","password":"longenough","name":"Pat","cityId":%q,"role":"ADMIN"}`, cityID)},
		{"short password", fmt.Sprintf(`{"email":"a@b.co","password":"short","name":"Pat","cityId":%q,"role":"ADMIN"}`, cityID)},
		{"short name", fmt.Sprintf(`{"email":"a@b.co","password":"longenough","name":"P","cityId":%q,"role":"ADMIN"}`, cityID)},
		{"bad city id", `{"email":"a@b.co","password":"longenough","name":"Pat","cityId":"nope","role":"ADMIN"}`},
		{"visitor not registerable", fmt.Sprintf(`{"email":"a@b.co","password":"longenough","name":"Pat","cityId":%q,"role":"VISITOR"}`, cityID)},
		{"unknown role", fmt.Sprintf(`{"email":"a@b.co","password":"longenough","name":"Pat","cityId":%q,"role":"SUPERUSER"}`, cityID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{}
			h := NewAuthHandlers(svc)

			_, err := postJSON(h.Register, tt.body)

			var httpErr *echo.HTTPError
			assert.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandlers(svc)

	svc.On("Login", mock.Anything, "admin@springfield.gov", "wrong").
		Return(nil, "", services.ErrInvalidCredentials)

	_, err := postJSON(h.Login, `{"email":"admin@springfield.gov","password":"wrong"}`)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "Invalid credentials", httpErr.Message)
}

func TestLogin_MissingFields(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandlers(svc)

	_, err := postJSON(h.Login, `{"email":"admin@springfield.gov"}`)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}
