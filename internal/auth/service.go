package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrFullNameRequired   = errors.New("full name is required")
	ErrPasswordRequired   = errors.New("password is required")
)

// IsValidationError reports whether err comes from invalid user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmailRequired, ErrEmailInvalid, ErrFullNameRequired,
		ErrPasswordRequired, ErrPasswordTooShort, ErrPasswordTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

// Service handles registration, login and token verification.
type Service struct {
	users  *users.Repository
	tokens *TokenIssuer
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(users *users.Repository, tokens *TokenIssuer, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		config: cfg,
	}
}

// Register creates a user with the plain user role.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (*entities.User, error) {
	return s.createUser(ctx, email, fullName, password, entities.UserRoleUser)
}

func (s *Service) createUser(ctx context.Context, email, fullName, password string, role entities.UserRole) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if email == "" {
		return nil, ErrEmailRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate verifies a bearer token and loads its user. The role is read
// from the database, so role changes apply to existing tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	userID, _, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the configured bootstrap admin if it does not exist.
// It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context) (bool, error) {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		return false, nil
	}
	_, err := s.createUser(ctx, s.config.AdminEmail, "Administrator", s.config.AdminPassword, entities.UserRoleAdmin)
	if errors.Is(err, ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
