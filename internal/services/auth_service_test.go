package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"porchboard/internal/models"
	"porchboard/internal/repositories"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, cityID, id uuid.UUID, role models.Role) error {
	args := m.Called(ctx, cityID, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) ListByCity(ctx context.Context, cityID uuid.UUID) ([]*models.User, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type AuthServiceTestSuite struct {
	suite.Suite
	mockRepo *MockUserRepository
	service  AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockUserRepository{}
	suite.service = NewAuthService(suite.mockRepo, "test-secret")
	suite.mockRepo.Test(suite.T())
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestRegister_Success() {
	ctx := context.Background()
	cityID := uuid.New()
	req := RegisterRequest{
		Email:    "organizer@springfield.gov",
		Password: "correct-horse",
		Name:     "Pat Organizer",
		CityID:   cityID,
		Role:     models.RoleEventCreator,
	}

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		user := args.Get(1).(*models.User)
		assert.Equal(suite.T(), req.Email, user.Email)
		assert.Equal(suite.T(), req.Name, user.Name)
		assert.Equal(suite.T(), cityID, user.CityID)
		assert.Equal(suite.T(), models.RoleEventCreator, user.Role)
		assert.NotEqual(suite.T(), uuid.Nil, user.ID)
		assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)))
	})

	user, token, err := suite.service.Register(ctx, req)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), user)
	assert.NotEmpty(suite.T(), token)
	assert.NotEqual(suite.T(), req.Password, user.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateEmail() {
	ctx := context.Background()
	req := RegisterRequest{
		Email:    "taken@springfield.gov",
		Password: "correct-horse",
		Name:     "Pat Organizer",
		CityID:   uuid.New(),
		Role:     models.RoleEventCreator,
	}

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrEmailTaken)

	user, token, err := suite.service.Register(ctx, req)
	assert.ErrorIs(suite.T(), err, repositories.ErrEmailTaken)
	assert.Nil(suite.T(), user)
	assert.Empty(suite.T(), token)
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	stored := &models.User{
		ID:           uuid.New(),
		CityID:       uuid.New(),
		Email:        "admin@springfield.gov",
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
	}

	suite.mockRepo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

	user, token, err := suite.service.Login(ctx, stored.Email, "correct-horse")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored.ID, user.ID)
	assert.NotEmpty(suite.T(), token)
}

func (suite *AuthServiceTestSuite) TestLogin_UnknownEmail() {
	ctx := context.Background()
	suite.mockRepo.On("GetByEmail", ctx, "nobody@springfield.gov").Return(nil, assert.AnError)

	_, _, err := suite.service.Login(ctx, "nobody@springfield.gov", "whatever")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	stored := &models.User{
		ID:           uuid.New(),
		Email:        "admin@springfield.gov",
		PasswordHash: string(hashed),
	}

	suite.mockRepo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

	_, _, err := suite.service.Login(ctx, stored.Email, "wrong-password")
	// Same error as an unknown email so the response cannot distinguish them.
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestValidateToken_Roundtrip() {
	user := &models.User{
		ID:     uuid.New(),
		CityID: uuid.New(),
		Role:   models.RoleAdmin,
	}

	token, err := suite.service.GenerateToken(user)
	assert.NoError(suite.T(), err)

	claims, err := suite.service.ValidateToken(token)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID.String(), claims.UserID)
	assert.Equal(suite.T(), user.CityID.String(), claims.CityID)
	assert.Equal(suite.T(), string(models.RoleAdmin), claims.Role)
	assert.WithinDuration(suite.T(), time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func (suite *AuthServiceTestSuite) TestValidateToken_WrongSecret() {
	other := NewAuthService(suite.mockRepo, "another-secret")
	user := &models.User{ID: uuid.New(), CityID: uuid.New(), Role: models.RoleVisitor}

	token, err := other.GenerateToken(user)
	assert.NoError(suite.T(), err)

	_, err = suite.service.ValidateToken(token)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestValidateToken_Garbage() {
	_, err := suite.service.ValidateToken("not.a.jwt")
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}
