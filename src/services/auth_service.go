package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/schemas"

	"github.com/go-chi/jwtauth"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 12 * time.Hour

type AuthServiceI interface {
	Login(ctx context.Context, username, password string) (*schemas.TokenResponse, error)
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
}

// AuthService checks passwords against bcrypt hashes and issues HS256 session tokens.
type AuthService struct {
	userRepository repositories.UserRepository
	TokenAuth      *jwtauth.JWTAuth
	sessionTTL     time.Duration
	Now            func() time.Time
}

func NewAuthService(userRepository repositories.UserRepository, secret string, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		userRepository: userRepository,
		TokenAuth:      jwtauth.New("HS256", []byte(secret), nil),
		sessionTTL:     sessionTTL,
		Now:            time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*schemas.TokenResponse, error) {
	user, err := s.userRepository.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.Now()
	expiresAt := now.Add(s.sessionTTL)
	claims := map[string]interface{}{
		"sub":      fmt.Sprint(user.ID),
		"username": user.Username,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expiresAt)

	_, token, err := s.TokenAuth.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &schemas.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.sessionTTL.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// CreateUser stores username with a bcrypt hash of password. An existing user gets its password replaced.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrMalformedInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}
