package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blogify/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenService mints and verifies access and refresh JWTs. The two kinds are
// signed with different secrets, so one can never be accepted as the other.
type TokenService struct {
	accessSecret    []byte
	accessTokenTTL  time.Duration
	refreshSecret   []byte
	refreshTokenTTL time.Duration
	now             func() time.Time
}

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Identity is the claim set carried by both token kinds.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(cfg TokenConfig, opts ...TokenOption) *TokenService {
	s := &TokenService{
		accessSecret:    []byte(cfg.AccessSecret),
		accessTokenTTL:  cfg.AccessTTL,
		refreshSecret:   []byte(cfg.RefreshSecret),
		refreshTokenTTL: cfg.RefreshTTL,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func IdentityOf(user *models.User) Identity {
	return Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func (s *TokenService) IssueAccessToken(id Identity) (string, time.Time, error) {
	return s.issue(id, s.accessSecret, s.accessTokenTTL)
}

func (s *TokenService) IssueRefreshToken(id Identity) (string, time.Time, error) {
	return s.issue(id, s.refreshSecret, s.refreshTokenTTL)
}

// IssuePair mints an access and a refresh token for the same identity. The
// caller is responsible for registering the refresh token as outstanding.
func (s *TokenService) IssuePair(id Identity) (*TokenPair, error) {
	access, accessExpiry, err := s.IssueAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiry, err := s.IssueRefreshToken(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.accessSecret)
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.refreshSecret)
}

func (s *TokenService) issue(id Identity, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(ttl)
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiry, nil
}

func (s *TokenService) verify(tokenString string, secret []byte) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
