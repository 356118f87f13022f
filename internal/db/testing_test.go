package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"blogify/internal/constants"
	"blogify/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func createTestUser(t *testing.T, users *UserRepository, name, email string) *models.User {
	t.Helper()

	u, err := users.Create(context.Background(), name, email, "hash", constants.RoleUser)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", email, err)
	}
	return u
}

func createTestBlog(t *testing.T, blogs *BlogRepository, blog *models.Blog) *models.Blog {
	t.Helper()

	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = time.Now().UTC()
	}
	if blog.UpdatedAt.IsZero() {
		blog.UpdatedAt = blog.CreatedAt
	}
	if blog.PlainText == "" {
		blog.PlainText = blog.Description
	}
	if err := blogs.Create(context.Background(), blog); err != nil {
		t.Fatalf("Create(%q) error = %v", blog.Title, err)
	}
	return blog
}
