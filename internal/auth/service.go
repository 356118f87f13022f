package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blogify/internal/apperr"
	"blogify/internal/constants"
	"blogify/internal/db"
	"blogify/internal/models"
	"blogify/internal/validation"
)

const (
	msgDuplicateEmail     = "User with this email already exists."
	msgInvalidCredentials = "Invalid email or password."
	msgAccountDeactivated = "Account is deactivated. Please contact administrator."
	msgInvalidToken       = "Invalid token."
	msgTokenExpired       = "Token expired."
	msgUserInactive       = "Invalid token or user not found."
	msgRefreshRevoked     = "Refresh token has been revoked."
)

// UserStore is the credential store the gateway authenticates against.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful register, login or refresh.
type Session struct {
	User *models.User `json:"user"`
	TokenPair
}

type Service struct {
	users    UserStore
	sessions SessionStore
	tokens   *TokenService
	hasher   *PasswordHasher
	now      func() time.Time
}

func NewService(users UserStore, sessions SessionStore, tokens *TokenService, hasher *PasswordHasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = constants.RoleUser
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := s.users.Create(ctx, in.Name, in.Email, hash, in.Role)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindDuplicateEmail, msgDuplicateEmail)
		}
		return nil, apperr.Internal(err)
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.startSession(ctx, user)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail with the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.KindAccountDeactivated, msgAccountDeactivated)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal(err)
	}
	user.LastLogin = &now

	return s.startSession(ctx, user)
}

// Logout drops refreshToken from the outstanding set. Empty, unknown and
// already removed tokens are accepted silently. Access tokens stay valid
// until they expire.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.sessions.Remove(ctx, refreshToken); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Refresh exchanges an outstanding refresh token for a new pair. The
// presented token is removed from the outstanding set.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Validation(apperr.FieldError{Field: "refreshToken", Message: "refreshToken is required"})
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}

	outstanding, err := s.sessions.Contains(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !outstanding {
		return nil, apperr.New(apperr.KindInvalidToken, msgRefreshRevoked)
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Remove(ctx, refreshToken); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.startSession(ctx, user)
}

// Authenticate resolves a bearer access token to its active user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperr.New(apperr.KindNoToken, "Access denied. No token provided.")
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, tokenError(err)
	}

	return s.activeUser(ctx, claims.UserID)
}

func (s *Service) activeUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.KindUserInactiveOrMissing, msgUserInactive)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.KindUserInactiveOrMissing, msgUserInactive)
	}
	return user, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(IdentityOf(user))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.sessions.Insert(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, apperr.Internal(fmt.Errorf("registering refresh token: %w", err))
	}
	return &Session{User: user, TokenPair: *pair}, nil
}

func tokenError(err error) error {
	if errors.Is(err, ErrTokenExpired) {
		return apperr.New(apperr.KindTokenExpired, msgTokenExpired)
	}
	return &apperr.Error{Kind: apperr.KindInvalidToken, Message: msgInvalidToken, Err: err}
}
