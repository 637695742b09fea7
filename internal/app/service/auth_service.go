package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"auth_api/internal/common"
	"auth_api/internal/common/security"
	"auth_api/internal/domain/model"
	"auth_api/internal/domain/repository"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const defaultStoreTimeout = 5 * time.Second

// AuthService orchestrates the credential store, password hasher, and
// token service behind register/login/profile/change-password.
type AuthService struct {
	users        repository.UserRepository
	hasher       *security.PasswordHasher
	tokens       *security.TokenService
	log          *slog.Logger
	storeTimeout time.Duration
}

func NewAuthService(users repository.UserRepository, hasher *security.PasswordHasher, tokens *security.TokenService, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		log:          log,
		storeTimeout: defaultStoreTimeout,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name *string `json:"name"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a user and issues its first token. Structural checks
// run before the uniqueness lookup so malformed input never reveals
// whether an email is taken.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	switch {
	case utf8.RuneCountInString(name) < 2:
		return nil, common.ErrNameTooShort
	case utf8.RuneCountInString(name) > 50:
		return nil, common.ErrNameTooLong
	case !emailPattern.MatchString(email):
		return nil, common.ErrInvalidEmail
	case len(req.Password) < security.MinPasswordLength:
		return nil, common.ErrPasswordTooShort
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, common.ErrInvalidRole
	}

	_, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		s.log.Warn("registration attempt with existing email", "email", email)
		return nil, common.ErrEmailExists
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("checking email uniqueness: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	storeCtx, cancel := s.boundStoreCtx(ctx)
	defer cancel()
	if err := s.users.Create(storeCtx, user); err != nil {
		// A racing registration with the same email lost to the store's
		// unique index; report it exactly like the pre-check would have.
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrEmailExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.log.Info("new user registered", "email", email, "role", role)
	return &AuthResponse{User: user.Sanitized(), Token: token}, nil
}

// Login verifies credentials and issues a token. An unknown email and a
// wrong password fail identically so emails cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Warn("failed login attempt", "email", email)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if !user.Active {
		s.log.Warn("login attempt for deactivated account", "email", email)
		return nil, common.ErrAccountDeactivated
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.log.Warn("failed login attempt", "email", email)
		return nil, common.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user.Sanitized(), Token: token}, nil
}

// GetProfile returns the sanitized user record for the subject.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	storeCtx, cancel := s.boundStoreCtx(ctx)
	defer cancel()

	user, err := s.users.FindByID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return user.Sanitized(), nil
}

// UpdateProfile applies a partial profile update. The subject may have
// vanished between authentication and the write; that surfaces as not
// found, same as if it never existed.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	if req.Name == nil {
		return s.GetProfile(ctx, userID)
	}

	name := strings.TrimSpace(*req.Name)
	if utf8.RuneCountInString(name) < 2 {
		return nil, common.ErrNameTooShort
	}
	if utf8.RuneCountInString(name) > 50 {
		return nil, common.ErrNameTooLong
	}

	storeCtx, cancel := s.boundStoreCtx(ctx)
	defer cancel()

	user, err := s.users.UpdateName(storeCtx, userID, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return user.Sanitized(), nil
}

// ChangePassword swaps the stored hash after verifying the current
// password. Previously issued tokens stay valid until natural expiry.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	storeCtx, cancel := s.boundStoreCtx(ctx)
	defer cancel()

	user, err := s.users.FindByID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return common.ErrCurrentPasswordWrong
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	writeCtx, cancelWrite := s.boundStoreCtx(ctx)
	defer cancelWrite()
	if err := s.users.UpdatePassword(writeCtx, userID, hash); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("updating password: %w", err)
	}

	s.log.Info("password changed", "user_id", userID)
	return nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	storeCtx, cancel := s.boundStoreCtx(ctx)
	defer cancel()
	return s.users.FindByEmail(storeCtx, email)
}

// boundStoreCtx caps a credential-store call with the configured deadline
// while still honoring cancellation of the inbound request.
func (s *AuthService) boundStoreCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
