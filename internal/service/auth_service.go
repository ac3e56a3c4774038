package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lms-admin-api/internal/dto"
)

// Token roles understood by the role middleware.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// ErrInvalidCredentials indicates the email or password did not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthConfig carries the single admin account and token settings.
type AuthConfig struct {
	Secret            string
	TTL               time.Duration
	AdminEmail        string
	AdminPasswordHash string
}

// AuthService authenticates the admin panel and issues bearer tokens.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	IssueToken(subject, role string) (dto.LoginResponse, error)
}

type authService struct {
	cfg       AuthConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(cfg AuthConfig, validator *validator.Validate, logger zerolog.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	return &authService{
		cfg:       cfg,
		validator: validator,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	// the hash comparison runs even for unknown emails so timing does not reveal the account
	hashErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(payload.Password))
	if email != s.cfg.AdminEmail || hashErr != nil {
		s.logger.Warn().Str("email", email).Msg("admin login rejected")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	return s.IssueToken(email, RoleAdmin)
}

func (s *authService) IssueToken(subject, role string) (dto.LoginResponse, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.TTL)

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}
