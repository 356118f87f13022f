package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blogify/internal/auth"
	"blogify/internal/blog"
	"blogify/internal/config"
	"blogify/internal/db"
)

type testServer struct {
	handler  http.Handler
	database *db.DB
	users    *db.UserRepository
}

func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database := openTestDB(t)
	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSAllowedOrigins: []string{"*"},
			MaxBodyBytes:       1 << 20,
		},
		RateLimit: config.RateLimitConfig{AuthRequests: 1000, AuthWindow: time.Minute},
	}

	users := db.NewUserRepository(database)
	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  "test-access-secret-test-access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "test-refresh-secret-test-refresh-secret",
		RefreshTTL:    24 * time.Hour,
	})
	authService := auth.NewService(users, auth.NewMemorySessionStore(), tokens, auth.NewPasswordHasher(bcrypt.MinCost))
	blogService := blog.NewService(db.NewBlogRepository(database), blog.NewSanitizer())

	server := NewServer(cfg, Services{
		Auth:     authService,
		Blogs:    blogService,
		Users:    users,
		Database: database,
	})

	return &testServer{handler: server, database: database, users: users}
}

type testEnvelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
	Errors     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Timestamp string `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var env testEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if env.StatusCode != rr.Code {
		t.Fatalf("envelope statusCode = %d, want %d", env.StatusCode, rr.Code)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", env.Timestamp, err)
	}
	return env
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

type sessionData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *testServer) register(t *testing.T, name, email, role string) sessionData {
	t.Helper()

	body := map[string]string{"name": name, "email": email, "password": "secret-pass"}
	if role != "" {
		body["role"] = role
	}
	rr := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var session sessionData
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &session); err != nil {
		t.Fatalf("json.Unmarshal(session) error = %v", err)
	}
	return session
}

type blogData struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
	LikeCount   int        `json:"likeCount"`
	LikedByMe   *bool      `json:"likedByMe"`
	Tags        []string   `json:"tags"`
	Author      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
}

func (s *testServer) createBlog(t *testing.T, token string, body map[string]any) blogData {
	t.Helper()

	rr := s.do(t, http.MethodPost, "/api/blogs", token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create blog status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var b blogData
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &b); err != nil {
		t.Fatalf("json.Unmarshal(blog) error = %v", err)
	}
	return b
}
