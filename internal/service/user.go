// Package service implements the application's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/cache"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/repository"
)

// Service-level errors for user operations.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfDeactivation   = errors.New("cannot deactivate own account")
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// UserService handles authentication and user management.
type UserService struct {
	repo    *repository.Repository
	issuer  *auth.TokenIssuer
	cache   *cache.Cache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, issuer *auth.TokenIssuer, c *cache.Cache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	return &UserService{
		repo:    repo,
		issuer:  issuer,
		cache:   c,
		metrics: recorder,
		logger:  logger.With("component", "service.user"),
	}
}

// LoginResult carries a fresh access token and its owner.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	User      *model.User
}

// Login verifies credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a verification anyway so a missing user costs the
			// same time as a wrong password.
			_, _ = auth.VerifyPassword(password, dummyHash)
			s.metrics.IncLogin("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLogin("failure")
		s.logger.Warn("login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		s.metrics.IncLogin("failure")
		return nil, ErrUserInactive
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	s.metrics.IncLogin("success")
	s.logger.Info("login successful", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		Token:     token,
		ExpiresIn: s.issuer.Expiry(),
		User:      user,
	}, nil
}

// Logout revokes a token until its natural expiry.
func (s *UserService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		// Expired or invalid tokens need no revocation.
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	hash := auth.QuickHash(tokenString)
	if s.cache != nil {
		if err := s.cache.RevokeToken(ctx, hash, ttl); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		_ = s.cache.DeleteAuthContext(ctx, hash)
	}
	return nil
}

// GetProfile returns a user's own profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput holds the fields a user may change on their profile.
type UpdateProfileInput struct {
	Name    *string
	Phone   *string
	Village *string
}

// UpdateProfile applies partial profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Village != nil {
		user.Village = *input.Village
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and sets a new one.
// All cached sessions for the user remain valid until token expiry; the
// presented token keeps working so the client is not logged out mid-change.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, updated string) error {
	if len(updated) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	match, err := auth.VerifyPassword(current, user.PasswordHash)
	if err != nil || !match {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(updated)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// GetPreferences returns a user's preference map.
func (s *UserService) GetPreferences(ctx context.Context, userID string) (map[string]string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Preferences == nil {
		return map[string]string{}, nil
	}
	return user.Preferences, nil
}

// UpdatePreferences merges the given keys into a user's preferences.
// An empty value removes the key.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs map[string]string) (map[string]string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Preferences == nil {
		user.Preferences = make(map[string]string, len(prefs))
	}
	for k, v := range prefs {
		if v == "" {
			delete(user.Preferences, k)
			continue
		}
		user.Preferences[k] = v
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return user.Preferences, nil
}

// CreateUserInput holds the fields for registering a user.
type CreateUserInput struct {
	Username string
	Password string
	Name     string
	Role     model.Role
	Phone    string
	Village  string
}

// CreateUser registers a new user. Admin only.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         input.Role,
		Phone:        input.Phone,
		Village:      input.Village,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// ListUsers returns all users. Admin only.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserActive enables or disables an account. Admin only.
func (s *UserService) SetUserActive(ctx context.Context, actorID, userID string, active bool) (*model.User, error) {
	if !active && actorID == userID {
		return nil, ErrSelfDeactivation
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user active flag changed", "user_id", userID, "active", active)
	return user, nil
}

// DeleteUser removes a user. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDeactivation
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// dummyHash is a valid PHC string verified on unknown-user logins to keep
// response timing uniform.
var dummyHash = func() string {
	h, err := auth.HashPassword("timing-equalizer")
	if err != nil {
		panic(err)
	}
	return h
}()
