package auth

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blogify/internal/apperr"
	"blogify/internal/constants"
	"blogify/internal/db"
)

type testEnv struct {
	service  *Service
	users    *db.UserRepository
	sessions *MemorySessionStore
	clock    *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	clock := &fakeClock{at: time.Now()}
	users := db.NewUserRepository(database)
	sessions := NewMemorySessionStore()
	sessions.now = clock.Now
	service := NewService(users, sessions, newTestTokenService(clock), NewPasswordHasher(bcrypt.MinCost))
	service.now = clock.Now

	return &testEnv{service: service, users: users, sessions: sessions, clock: clock}
}

func (e *testEnv) register(t *testing.T, email string) *Session {
	t.Helper()

	session, err := e.service.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    email,
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", email, err)
	}
	return session
}

func TestRegisterHashesPasswordAndHidesIt(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Alice@Example.com")

	if session.User.Role != constants.RoleUser {
		t.Fatalf("role = %q, want %q", session.User.Role, constants.RoleUser)
	}
	if session.User.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(session.User.PasswordHash), []byte("correct-horse")) != nil {
		t.Fatal("stored hash does not match password")
	}

	body, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(body), "password") || strings.Contains(string(body), session.User.PasswordHash) {
		t.Fatalf("serialized session leaks the credential: %s", body)
	}

	if ok, _ := env.sessions.Contains(context.Background(), session.RefreshToken); !ok {
		t.Fatal("refresh token should be outstanding after register")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	_, err := env.service.Register(context.Background(), RegisterInput{
		Name:     "Imposter",
		Email:    "ALICE@example.com",
		Password: "whatever1",
	})
	if !apperr.Is(err, apperr.KindDuplicateEmail) {
		t.Fatalf("Register(duplicate) error = %v, want DuplicateEmail", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), RegisterInput{
		Name:     "A",
		Email:    "nope",
		Password: "123",
		Role:     "root",
	})
	appErr := apperr.As(err)
	if appErr.Kind != apperr.KindValidation {
		t.Fatalf("kind = %v, want %v", appErr.Kind, apperr.KindValidation)
	}
	if len(appErr.Fields) != 4 {
		t.Fatalf("fields = %+v, want 4 entries", appErr.Fields)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	_, wrongPassword := env.service.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	_, unknownEmail := env.service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"})

	a, b := apperr.As(wrongPassword), apperr.As(unknownEmail)
	if a.Kind != apperr.KindInvalidCredentials || b.Kind != apperr.KindInvalidCredentials {
		t.Fatalf("kinds = %v, %v, want InvalidCredentials", a.Kind, b.Kind)
	}
	if a.Message != b.Message || a.Kind.Status() != b.Kind.Status() {
		t.Fatalf("messages differ: %q vs %q", a.Message, b.Message)
	}
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice@example.com")

	session, err := env.service.Login(context.Background(), LoginInput{Email: "ALICE@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.User.ID != registered.User.ID {
		t.Fatalf("user id = %q, want %q", session.User.ID, registered.User.ID)
	}

	stored, err := env.users.FindByID(context.Background(), registered.User.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatal("lastLogin not recorded")
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice@example.com")
	if err := env.users.SetActive(context.Background(), registered.User.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	_, err := env.service.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-horse"})
	if !apperr.Is(err, apperr.KindAccountDeactivated) {
		t.Fatalf("Login() error = %v, want AccountDeactivated", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "alice@example.com")
	ctx := context.Background()

	user, err := env.service.Authenticate(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != session.User.ID {
		t.Fatalf("user id = %q, want %q", user.ID, session.User.ID)
	}

	tests := []struct {
		name  string
		token string
		want  apperr.Kind
	}{
		{"missing", "", apperr.KindNoToken},
		{"garbage", "abc.def.ghi", apperr.KindInvalidToken},
		{"refresh token as access", session.RefreshToken, apperr.KindInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Authenticate(ctx, tt.token)
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("kind = %v, want %v", got, tt.want)
			}
		})
	}

	if err := env.users.SetActive(ctx, session.User.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := env.service.Authenticate(ctx, session.AccessToken); !apperr.Is(err, apperr.KindUserInactiveOrMissing) {
		t.Fatalf("Authenticate(inactive) error = %v, want UserInactiveOrMissing", err)
	}

	env.clock.at = env.clock.at.Add(time.Hour)
	if _, err := env.service.Authenticate(ctx, session.AccessToken); !apperr.Is(err, apperr.KindTokenExpired) {
		t.Fatalf("Authenticate(expired) error = %v, want TokenExpired", err)
	}
}

func TestLogoutIsIdempotentAndLeavesAccessTokenValid(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "alice@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.service.Logout(ctx, session.RefreshToken); err != nil {
			t.Fatalf("Logout() #%d error = %v", i+1, err)
		}
	}
	if err := env.service.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout(empty) error = %v", err)
	}

	if ok, _ := env.sessions.Contains(ctx, session.RefreshToken); ok {
		t.Fatal("refresh token still outstanding after logout")
	}
	if _, err := env.service.Authenticate(ctx, session.AccessToken); err != nil {
		t.Fatalf("access token should remain valid until expiry, got %v", err)
	}
	if _, err := env.service.Refresh(ctx, session.RefreshToken); !apperr.Is(err, apperr.KindInvalidToken) {
		t.Fatalf("Refresh(after logout) error = %v, want InvalidToken", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "alice@example.com")
	ctx := context.Background()

	rotated, err := env.service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Fatal("Refresh() returned the same refresh token")
	}
	if ok, _ := env.sessions.Contains(ctx, session.RefreshToken); ok {
		t.Fatal("old refresh token still outstanding")
	}
	if ok, _ := env.sessions.Contains(ctx, rotated.RefreshToken); !ok {
		t.Fatal("new refresh token not outstanding")
	}

	if _, err := env.service.Refresh(ctx, session.RefreshToken); !apperr.Is(err, apperr.KindInvalidToken) {
		t.Fatalf("Refresh(reused) error = %v, want InvalidToken", err)
	}
	if _, err := env.service.Refresh(ctx, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Refresh(empty) error = %v, want Validation", err)
	}
}
