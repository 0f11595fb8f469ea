package services

import (
	"errors"
	"fmt"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminRole is carried by every admin access token
const AdminRole = "admin"

var (
	// ErrInvalidCredentials is returned for a wrong username or password
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAdminDisabled is returned when no admin password is configured
	ErrAdminDisabled = errors.New("admin access is not configured")

	// ErrInvalidRefreshToken is returned when a refresh token is rejected
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AdminAuthService handles admin authentication business logic
type AdminAuthService struct {
	username     string
	passwordHash []byte
	jwtService   *jwt.Service
	logger       *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service for the configured account
func NewAdminAuthService(username, passwordHash string, jwtService *jwt.Service, logger *logrus.Logger) *AdminAuthService {
	return &AdminAuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtService:   jwtService,
		logger:       logger,
	}
}

// Login authenticates the admin and returns tokens
func (s *AdminAuthService) Login(username, password string) (*models.AdminLoginResponse, error) {
	if len(s.passwordHash) == 0 {
		return nil, ErrAdminDisabled
	}

	// Hash is checked regardless of username
	hashErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if username != s.username || hashErr != nil {
		s.logger.WithField("username", username).Warn("Admin login rejected")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(s.username, []string{AdminRole})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(s.username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.logger.WithField("username", username).Info("Admin logged in")

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Username:     s.username,
	}, nil
}

// RefreshToken generates a new access token from a refresh token
func (s *AdminAuthService) RefreshToken(refreshToken string) (*models.AdminLoginResponse, error) {
	if len(s.passwordHash) == 0 {
		return nil, ErrAdminDisabled
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	if claims.Username != s.username {
		return nil, fmt.Errorf("%w: unknown user %q", ErrInvalidRefreshToken, claims.Username)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(s.username, []string{AdminRole})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.AdminLoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Username:    s.username,
	}, nil
}
