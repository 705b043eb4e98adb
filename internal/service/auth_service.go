package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/internal/session"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

// BcryptCost is the work factor for stored password hashes
const BcryptCost = 10

// SessionStore issues and resolves bearer tokens
type SessionStore interface {
	Create(ctx context.Context, requester domain.Requester) (string, error)
	Get(ctx context.Context, token string) (*domain.Requester, error)
	Delete(ctx context.Context, token string) error
}

type AuthService struct {
	repos    *repository.Repositories
	sessions SessionStore
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(repos *repository.Repositories, sessions SessionStore, logger *zap.Logger) *AuthService {
	return &AuthService{
		repos:    repos,
		sessions: sessions,
		logger:   logger,
	}
}

// Register creates a regular account and signs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", &apperrors.ErrValidation{Message: "user already exists"}
		}
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, domain.Requester{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, "", err
	}

	logging.FromContext(ctx, s.logger).Info("User registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login checks the password and opens a session
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.User, string, error) {
	invalid := &apperrors.ErrUnauthorized{Message: "invalid email or password"}

	user, err := s.repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", invalid
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", invalid
	}

	token, err := s.sessions.Create(ctx, domain.Requester{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to its requester
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Requester, error) {
	requester, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, &apperrors.ErrUnauthorized{Message: "not authorized, token failed"}
		}
		return nil, err
	}
	return requester, nil
}

func (s *AuthService) Profile(ctx context.Context, requester domain.Requester) (*domain.User, error) {
	return s.repos.User.GetByID(ctx, requester.UserID)
}
