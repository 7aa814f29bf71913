package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic311-be/models"
	authUtils "civic311-be/utils"

	"go.uber.org/zap"
)

// AnonymousEmail owns requests submitted through the public endpoint.
const AnonymousEmail = "anonymous@system.local"

var errBadCredentials = fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)

// UserService is the auth provider: accounts, passwords and tokens.
type UserService struct {
	store    UserStore
	secret   string
	tokenTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(store UserStore, secret string, tokenTTL time.Duration, logger *zap.Logger) *UserService {
	return &UserService{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger.Named("users"),
		now:      utcNow,
	}
}

// Register creates a citizen account. Self-registration never grants a
// higher role.
func (s *UserService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == AnonymousEmail {
		return nil, fmt.Errorf("%w: email %s is reserved", models.ErrConflict, email)
	}
	if len(reg.Password) > models.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", models.ErrInvalidArgument, models.MaxPasswordBytes)
	}
	now := s.now()
	user := &models.User{
		Email:     email,
		Password:  reg.Password,
		FullName:  strings.TrimSpace(reg.FullName),
		Phone:     reg.Phone,
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, errBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if user.Password == "" || !user.ComparePassword(password) {
		return "", nil, errBadCredentials
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: account is inactive", models.ErrForbidden)
	}

	token, err := authUtils.GenerateToken(user.ID, user.Role, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a token to an active user. The role is read from
// the store, not the token, so role changes apply immediately.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := authUtils.ParseToken(token, s.secret)
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", models.ErrForbidden)
	}
	return user, nil
}

// Anonymous returns the system account that owns public submissions,
// creating it on first use.
func (s *UserService) Anonymous(ctx context.Context) (*models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, AnonymousEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	user = &models.User{
		Email:     AnonymousEmail,
		FullName:  "Anonymous",
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.InsertUser(ctx, user)
	if errors.Is(err, models.ErrConflict) {
		return s.store.FindUserByEmail(ctx, AnonymousEmail)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	now := s.now()
	admin := &models.User{
		Email:     email,
		Password:  password,
		FullName:  "Administrator",
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := admin.HashPassword(); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.InsertUser(ctx, admin); err != nil && !errors.Is(err, models.ErrConflict) {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}
