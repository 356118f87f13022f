package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"blogify/internal/models"
)

const userColumns = `id, name, email, password_hash, role, is_active, last_login, created_at, updated_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user. Emails are stored lowercased; a second user with
// the same email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*models.User, error) {
	id, err := newID(userIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generating user ID: %w", err)
	}
	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		id, name, email, passwordHash, role, now, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// List returns one page of users matching filter plus the total match count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	var where []string
	var args []any

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		where = append(where, `(instr(lower(name), ?) > 0 OR instr(lower(email), ?) > 0)`)
		args = append(args, search, search)
	}
	if filter.Role != "" {
		where = append(where, `role = ?`)
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		where = append(where, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}

	clause := ""
	if len(where) > 0 {
		clause = ` WHERE ` + strings.Join(where, ` AND `)
	}

	var (
		users []*models.User
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		page := models.ClampPage(filter.Page, filter.Limit)
		pageArgs := append(append([]any{}, args...), filter.Limit, (page-1)*filter.Limit)
		rows, err := r.db.QueryContext(gctx,
			`SELECT `+userColumns+` FROM users`+clause+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
			pageArgs...,
		)
		if err != nil {
			return fmt.Errorf("querying users: %w", err)
		}
		defer rows.Close()

		users = make([]*models.User, 0, filter.Limit)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scanning user: %w", err)
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating users: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	return checkRowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.LastLogin = nullTimeToPtr(lastLogin)
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}
