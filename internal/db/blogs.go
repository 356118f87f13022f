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

type BlogRepository struct {
	db *DB
}

func NewBlogRepository(db *DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts blog with its media and tags. The ID is generated when
// blog.ID is empty; timestamps are taken from blog as given.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		id, err := newID(blogIDPrefix)
		if err != nil {
			return fmt.Errorf("generating blog ID: %w", err)
		}
		blog.ID = id
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO blogs (id, title, description, plain_text, author_id, is_published, published_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			blog.ID, blog.Title, blog.Description, blog.PlainText, blog.AuthorID,
			blog.IsPublished, timePtrToNull(blog.PublishedAt), blog.CreatedAt.UTC(), blog.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("creating blog: %w", err)
		}
		return writeChildren(ctx, tx, blog)
	})
}

func (r *BlogRepository) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.title, b.description, b.plain_text, b.author_id, u.name, u.email,
		        b.is_published, b.published_at, b.created_at, b.updated_at
		   FROM blogs b
		   JOIN users u ON u.id = b.author_id
		  WHERE b.id = ?`,
		id,
	)

	blog, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying blog: %w", err)
	}

	if err := r.loadChildren(ctx, []*models.Blog{blog}); err != nil {
		return nil, err
	}
	return blog, nil
}

// Update rewrites the blog row and replaces its media and tags.
func (r *BlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE blogs
			    SET title = ?, description = ?, plain_text = ?, is_published = ?, published_at = ?, updated_at = ?
			  WHERE id = ?`,
			blog.Title, blog.Description, blog.PlainText, blog.IsPublished,
			timePtrToNull(blog.PublishedAt), blog.UpdatedAt.UTC(), blog.ID,
		)
		if err != nil {
			return fmt.Errorf("updating blog: %w", err)
		}
		if err := checkRowsAffected(result); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_media WHERE blog_id = ?`, blog.ID); err != nil {
			return fmt.Errorf("clearing blog media: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_tags WHERE blog_id = ?`, blog.ID); err != nil {
			return fmt.Errorf("clearing blog tags: %w", err)
		}
		return writeChildren(ctx, tx, blog)
	})
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting blog: %w", err)
	}
	return checkRowsAffected(result)
}

// ToggleLike removes userID from the blog's like set if present, otherwise
// adds it, in a single transaction. It reports whether the user now likes
// the blog.
func (r *BlogRepository) ToggleLike(ctx context.Context, blogID, userID string) (bool, error) {
	liked := false
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM blogs WHERE id = ?`, blogID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying blog: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM blog_likes WHERE blog_id = ? AND user_id = ?`, blogID, userID)
		if err != nil {
			return fmt.Errorf("removing like: %w", err)
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if removed > 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blog_likes (blog_id, user_id, created_at) VALUES (?, ?, ?)`,
			blogID, userID, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("adding like: %w", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

// List returns one page of blogs matching filter plus the total match count.
// With search terms, rows are ranked by a term score (title hits weigh twice
// a description hit) before the filter's time ordering.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]*models.Blog, int, error) {
	scoreExpr, scoreArgs := searchScore(filter.Terms)

	var where []string
	var whereArgs []any
	if filter.AuthorID != "" {
		where = append(where, `b.author_id = ?`)
		whereArgs = append(whereArgs, filter.AuthorID)
	}
	if filter.IsPublished != nil {
		where = append(where, `b.is_published = ?`)
		whereArgs = append(whereArgs, *filter.IsPublished)
	}
	if filter.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM blog_tags t WHERE t.blog_id = b.id AND t.tag = ?)`)
		whereArgs = append(whereArgs, filter.Tag)
	}
	if len(filter.Terms) > 0 {
		where = append(where, scoreExpr+` > 0`)
		whereArgs = append(whereArgs, scoreArgs...)
	}

	from := `FROM blogs b JOIN users u ON u.id = b.author_id`
	if len(where) > 0 {
		from += ` WHERE ` + strings.Join(where, ` AND `)
	}

	order := `b.published_at DESC, b.created_at DESC, b.id DESC`
	if filter.OrderBy == models.OrderByCreatedAt {
		order = `b.created_at DESC, b.id DESC`
	}
	var orderArgs []any
	if len(filter.Terms) > 0 {
		order = scoreExpr + ` DESC, ` + order
		orderArgs = scoreArgs
	}

	var (
		blogs []*models.Blog
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.QueryRowContext(gctx, `SELECT COUNT(*) `+from, whereArgs...).Scan(&total); err != nil {
			return fmt.Errorf("counting blogs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		pageArgs := make([]any, 0, len(whereArgs)+len(orderArgs)+2)
		pageArgs = append(pageArgs, whereArgs...)
		pageArgs = append(pageArgs, orderArgs...)
		pageArgs = append(pageArgs, filter.Limit, filter.Offset)
		rows, err := r.db.QueryContext(gctx,
			`SELECT b.id, b.title, b.description, b.plain_text, b.author_id, u.name, u.email,
			        b.is_published, b.published_at, b.created_at, b.updated_at `+
				from+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
			pageArgs...,
		)
		if err != nil {
			return fmt.Errorf("querying blogs: %w", err)
		}
		defer rows.Close()

		blogs = make([]*models.Blog, 0, filter.Limit)
		for rows.Next() {
			blog, err := scanBlog(rows)
			if err != nil {
				return fmt.Errorf("scanning blog: %w", err)
			}
			blogs = append(blogs, blog)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating blogs: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if err := r.loadChildren(ctx, blogs); err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}

// PopularTags counts tag usage across published blogs only.
func (r *BlogRepository) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.tag, COUNT(*) AS uses
		   FROM blog_tags t
		   JOIN blogs b ON b.id = t.blog_id
		  WHERE b.is_published = 1
		  GROUP BY t.tag
		  ORDER BY uses DESC, t.tag ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying popular tags: %w", err)
	}
	defer rows.Close()

	tags := make([]models.TagCount, 0, limit)
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tag count: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag counts: %w", err)
	}

	return tags, nil
}

// searchScore builds the relevance expression over the blogs row aliased b.
// Terms are expected lowercased.
func searchScore(terms []string) (string, []any) {
	if len(terms) == 0 {
		return `0`, nil
	}

	parts := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2)
	for _, term := range terms {
		parts = append(parts, `(instr(lower(b.title), ?) > 0) * 2 + (instr(lower(b.plain_text), ?) > 0)`)
		args = append(args, term, term)
	}
	return `(` + strings.Join(parts, ` + `) + `)`, args
}

func writeChildren(ctx context.Context, tx *sql.Tx, blog *models.Blog) error {
	for i, m := range blog.Media {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blog_media (blog_id, position, url, alt) VALUES (?, ?, ?, ?)`,
			blog.ID, i, m.URL, m.Alt,
		); err != nil {
			return fmt.Errorf("inserting blog media: %w", err)
		}
	}
	for i, tag := range blog.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blog_tags (blog_id, position, tag) VALUES (?, ?, ?)`,
			blog.ID, i, tag,
		); err != nil {
			return fmt.Errorf("inserting blog tag: %w", err)
		}
	}
	return nil
}

func scanBlog(row rowScanner) (*models.Blog, error) {
	var b models.Blog
	var author models.UserSummary
	var publishedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.PlainText,
		&b.AuthorID,
		&author.Name,
		&author.Email,
		&b.IsPublished,
		&publishedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	author.ID = b.AuthorID
	b.Author = &author
	b.PublishedAt = nullTimeToPtr(publishedAt)
	b.Media = []models.Media{}
	b.Tags = []string{}
	b.Likes = []models.UserSummary{}
	return &b, nil
}

// loadChildren fills media, tags and resolved likes for blogs using one
// query per child table.
func (r *BlogRepository) loadChildren(ctx context.Context, blogs []*models.Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	byID := make(map[string]*models.Blog, len(blogs))
	ids := make([]string, 0, len(blogs))
	for _, b := range blogs {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}
	placeholders, args := inClause(ids)

	mediaRows, err := r.db.QueryContext(ctx,
		`SELECT blog_id, url, alt FROM blog_media WHERE blog_id IN (`+placeholders+`) ORDER BY blog_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying blog media: %w", err)
	}
	defer mediaRows.Close()
	for mediaRows.Next() {
		var blogID string
		var m models.Media
		if err := mediaRows.Scan(&blogID, &m.URL, &m.Alt); err != nil {
			return fmt.Errorf("scanning blog media: %w", err)
		}
		byID[blogID].Media = append(byID[blogID].Media, m)
	}
	if err := mediaRows.Err(); err != nil {
		return fmt.Errorf("iterating blog media: %w", err)
	}

	tagRows, err := r.db.QueryContext(ctx,
		`SELECT blog_id, tag FROM blog_tags WHERE blog_id IN (`+placeholders+`) ORDER BY blog_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying blog tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var blogID, tag string
		if err := tagRows.Scan(&blogID, &tag); err != nil {
			return fmt.Errorf("scanning blog tag: %w", err)
		}
		byID[blogID].Tags = append(byID[blogID].Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("iterating blog tags: %w", err)
	}

	likeRows, err := r.db.QueryContext(ctx,
		`SELECT l.blog_id, u.id, u.name, u.email
		   FROM blog_likes l
		   JOIN users u ON u.id = l.user_id
		  WHERE l.blog_id IN (`+placeholders+`)
		  ORDER BY l.blog_id, l.created_at, l.rowid`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying blog likes: %w", err)
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var blogID string
		var u models.UserSummary
		if err := likeRows.Scan(&blogID, &u.ID, &u.Name, &u.Email); err != nil {
			return fmt.Errorf("scanning blog like: %w", err)
		}
		byID[blogID].Likes = append(byID[blogID].Likes, u)
	}
	if err := likeRows.Err(); err != nil {
		return fmt.Errorf("iterating blog likes: %w", err)
	}

	for _, b := range blogs {
		b.LikeCount = len(b.Likes)
	}
	return nil
}
