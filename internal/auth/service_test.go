package auth

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/askhub-io/backend/internal/database"
	applogger "github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupSuite initializes test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
	require.NoError(suite.T(), applogger.Initialize("error", os.DevNull))

	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "askhub_test")

	testDSN := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		testDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet during tests
	})
	if err != nil {
		suite.T().Skipf("Skipping auth tests: database not available (%v)", err)
		return
	}

	// Set global DB for database package
	database.DB = db

	err = db.AutoMigrate(&models.User{})
	require.NoError(suite.T(), err)

	suite.db = db
	suite.authService = NewService([]byte("test_jwt_secret_key"))
}

// TearDownSuite cleans up after tests
func (suite *AuthServiceTestSuite) TearDownSuite() {
	suite.db.Exec("DROP TABLE IF EXISTS users CASCADE")

	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

// SetupTest cleans database before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM users")
}

// TestRegister tests user registration
func (suite *AuthServiceTestSuite) TestRegister() {
	t := suite.T()

	req := RegisterRequest{
		Email:       "test@askhub.io",
		Username:    "testasker",
		Password:    "password123",
		DisplayName: "Test Asker",
	}

	authResp, err := suite.authService.Register(req)
	require.NoError(t, err)
	require.NotNil(t, authResp)

	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, req.Email, authResp.User.Email)
	assert.Equal(t, req.Username, authResp.User.Username)
	assert.Equal(t, req.DisplayName, authResp.User.DisplayName)
	assert.NotNil(t, authResp.User.PasswordHash)

	// Duplicate email
	_, err = suite.authService.Register(req)
	assert.Error(t, err)
	assert.Equal(t, ErrUserExists, err)

	// Duplicate username
	req2 := RegisterRequest{
		Email:       "different@askhub.io",
		Username:    "testasker",
		Password:    "password456",
		DisplayName: "Different Asker",
	}

	_, err = suite.authService.Register(req2)
	assert.Error(t, err)
	assert.Equal(t, ErrUsernameExists, err)
}

// TestLogin tests user login
func (suite *AuthServiceTestSuite) TestLogin() {
	t := suite.T()

	registerReq := RegisterRequest{
		Email:       "login@test.com",
		Username:    "logintest",
		Password:    "testpass123",
		DisplayName: "Login Test",
	}

	_, err := suite.authService.Register(registerReq)
	require.NoError(t, err)

	loginReq := LoginRequest{
		Email:    "login@test.com",
		Password: "testpass123",
	}

	authResp, err := suite.authService.Login(loginReq)
	require.NoError(t, err)
	require.NotNil(t, authResp)

	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, loginReq.Email, authResp.User.Email)
	assert.NotNil(t, authResp.User.LastActiveAt)

	// Unknown email reads as invalid credentials, not "user missing"
	loginReq.Email = "nonexistent@test.com"
	_, err = suite.authService.Login(loginReq)
	assert.Equal(t, ErrInvalidCredentials, err)

	// Wrong password
	loginReq.Email = "login@test.com"
	loginReq.Password = "wrongpassword"
	_, err = suite.authService.Login(loginReq)
	assert.Equal(t, ErrInvalidCredentials, err)

	// Case-insensitive email
	loginReq.Email = "LOGIN@TEST.COM"
	loginReq.Password = "testpass123"
	_, err = suite.authService.Login(loginReq)
	assert.NoError(t, err)
}

// TestProgressiveLockout tests the failed-login lockout tiers
func (suite *AuthServiceTestSuite) TestProgressiveLockout() {
	t := suite.T()

	registerReq := RegisterRequest{
		Email:       "lockout@test.com",
		Username:    "lockouttest",
		Password:    "correctpass1",
		DisplayName: "Lockout Test",
	}
	_, err := suite.authService.Register(registerReq)
	require.NoError(t, err)

	badLogin := LoginRequest{Email: "lockout@test.com", Password: "wrongpass"}

	// First four failures: invalid credentials, no lockout
	for i := 0; i < 4; i++ {
		_, err = suite.authService.Login(badLogin)
		assert.Equal(t, ErrInvalidCredentials, err)
	}

	var user models.User
	require.NoError(t, suite.db.Where("email = ?", "lockout@test.com").First(&user).Error)
	assert.Equal(t, 4, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)

	// Fifth failure triggers the 15 minute lockout
	_, err = suite.authService.Login(badLogin)
	var lockedErr *AccountLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), lockedErr.Until, 10*time.Second)

	// Even the correct password is rejected while locked
	goodLogin := LoginRequest{Email: "lockout@test.com", Password: "correctpass1"}
	_, err = suite.authService.Login(goodLogin)
	require.ErrorAs(t, err, &lockedErr)

	// Expire the lockout manually, then a successful login resets state
	past := time.Now().Add(-time.Minute)
	require.NoError(t, suite.db.Model(&models.User{}).
		Where("email = ?", "lockout@test.com").
		Update("locked_until", past).Error)

	authResp, err := suite.authService.Login(goodLogin)
	require.NoError(t, err)
	assert.Equal(t, 0, authResp.User.FailedLoginAttempts)
	assert.Nil(t, authResp.User.LockedUntil)
}

// TestLockoutEscalation tests that higher failure counts escalate the lock duration
func (suite *AuthServiceTestSuite) TestLockoutEscalation() {
	t := suite.T()

	registerReq := RegisterRequest{
		Email:       "escalate@test.com",
		Username:    "escalatetest",
		Password:    "correctpass1",
		DisplayName: "Escalate Test",
	}
	_, err := suite.authService.Register(registerReq)
	require.NoError(t, err)

	// Seed the user at 7 failures with an expired lock
	past := time.Now().Add(-time.Minute)
	require.NoError(t, suite.db.Model(&models.User{}).
		Where("email = ?", "escalate@test.com").
		Updates(map[string]interface{}{"failed_login_attempts": 7, "locked_until": past}).Error)

	// Eighth failure escalates to the 1 hour tier
	badLogin := LoginRequest{Email: "escalate@test.com", Password: "wrongpass"}
	_, err = suite.authService.Login(badLogin)
	var lockedErr *AccountLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.WithinDuration(t, time.Now().Add(time.Hour), lockedErr.Until, 10*time.Second)

	// Seed at 11 failures with an expired lock; twelfth hits the 24 hour tier
	require.NoError(t, suite.db.Model(&models.User{}).
		Where("email = ?", "escalate@test.com").
		Updates(map[string]interface{}{"failed_login_attempts": 11, "locked_until": past}).Error)

	_, err = suite.authService.Login(badLogin)
	require.ErrorAs(t, err, &lockedErr)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), lockedErr.Until, 10*time.Second)
}

// TestBannedUserLogin tests that banned accounts cannot log in
func (suite *AuthServiceTestSuite) TestBannedUserLogin() {
	t := suite.T()

	registerReq := RegisterRequest{
		Email:       "banned@test.com",
		Username:    "bannedtest",
		Password:    "password123",
		DisplayName: "Banned Test",
	}
	_, err := suite.authService.Register(registerReq)
	require.NoError(t, err)

	require.NoError(t, suite.db.Model(&models.User{}).
		Where("email = ?", "banned@test.com").
		Update("is_banned", true).Error)

	_, err = suite.authService.Login(LoginRequest{Email: "banned@test.com", Password: "password123"})
	assert.Equal(t, ErrUserBanned, err)
}

// TestJWTTokenValidation tests JWT token generation and validation
func (suite *AuthServiceTestSuite) TestJWTTokenValidation() {
	t := suite.T()

	user := models.User{
		Email:       "jwt@test.com",
		Username:    "jwttest",
		DisplayName: "JWT Test",
	}

	err := suite.db.Create(&user).Error
	require.NoError(t, err)

	authResp, err := suite.authService.generateAuthResponse(&user)
	require.NoError(t, err)

	validatedUser, err := suite.authService.ValidateToken(authResp.Token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, validatedUser.ID)
	assert.Equal(t, user.Email, validatedUser.Email)
	assert.Equal(t, user.Username, validatedUser.Username)

	// Garbage token
	_, err = suite.authService.ValidateToken("invalid.jwt.token")
	assert.Error(t, err)

	// Wrong signing key
	wrongService := NewService([]byte("wrong_secret"))
	_, err = wrongService.ValidateToken(authResp.Token)
	assert.Error(t, err)
}

// TestConcurrentRegistration tests concurrent user registration
func (suite *AuthServiceTestSuite) TestConcurrentRegistration() {
	t := suite.T()

	const numGoroutines = 10
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(index int) {
			req := RegisterRequest{
				Email:       fmt.Sprintf("concurrent%d@test.com", index),
				Username:    fmt.Sprintf("concurrent%d", index),
				Password:    "password123",
				DisplayName: fmt.Sprintf("Concurrent User %d", index),
			}

			_, err := suite.authService.Register(req)
			results <- err
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		err := <-results
		assert.NoError(t, err, "Concurrent registration %d failed", i)
	}

	var userCount int64
	suite.db.Model(&models.User{}).Where("email LIKE 'concurrent%@test.com'").Count(&userCount)
	assert.Equal(t, int64(numGoroutines), userCount)
}

// Run the test suite
func TestAuthServiceSuite(t *testing.T) {
	if os.Getenv("SKIP_DB_TESTS") == "true" {
		t.Skip("Skipping database tests")
	}

	suite.Run(t, new(AuthServiceTestSuite))
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
