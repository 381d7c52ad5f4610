package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/cache"
	"github.com/shelfmark/shelfmark/internal/model"
	"github.com/shelfmark/shelfmark/internal/repository"
)

// Account errors.
var (
	ErrInvalidUsername    = errors.New("invalid username format")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Username validation regex: 3-50 chars, alphanumeric plus dot, hyphen, underscore.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)

const minPasswordLength = 8

// UserService handles account registration, login, and sessions.
type UserService struct {
	repo       *repository.Repository
	cache      *cache.Cache
	sessionTTL time.Duration
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, cache *cache.Cache, sessionTTL time.Duration) *UserService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &UserService{
		repo:       repo,
		cache:      cache,
		sessionTTL: sessionTTL,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// Register creates a new account with an argon2id password hash.
// Role defaults to reader when empty.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if !usernameRegex.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	role := input.Role
	if role == "" {
		role = model.RoleReader
	}
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Role:         role,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and opens a Redis-backed session.
// Returns the opaque session token alongside the account.
//
// Unknown usernames and wrong passwords both come back as
// ErrInvalidCredentials so callers can't probe for accounts.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	authCtx := &model.AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if err := s.cache.SetSession(ctx, token, authCtx, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	return token, user, nil
}

// Logout drops the session. Unknown tokens are a no-op.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if !auth.ValidateTokenFormat(token) {
		return nil
	}
	return s.cache.DeleteSession(ctx, token)
}

// GetUser retrieves an account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%q: %w", id, ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword rotates an account password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := auth.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

// DeleteUser removes an account.
// Existing sessions expire on their own TTL.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
