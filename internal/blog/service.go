// Package blog holds the rules for the blog aggregate: ownership, the publish
// lifecycle, like toggling, and listing with search and pagination.
package blog

import (
	"context"
	"errors"
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
	msgNotFound        = "Blog not found"
	msgForbiddenEdit   = "You can only edit your own blogs"
	msgForbiddenDelete = "You can only delete your own blogs"
	msgForbiddenView   = "You can only view your own drafts"
)

// Store is the blog aggregate persistence the service operates on.
type Store interface {
	Create(ctx context.Context, blog *models.Blog) error
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, blogID, userID string) (bool, error)
	List(ctx context.Context, filter models.BlogFilter) ([]*models.Blog, int, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagCount, error)
}

type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Tag       string
	Published *bool
}

type Page struct {
	Blogs      []*models.Blog    `json:"blogs"`
	Pagination models.Pagination `json:"pagination"`
}

type Service struct {
	store     Store
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewService(store Store, sanitizer *Sanitizer) *Service {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// ListPublished pages through published blogs. viewerID may be empty; when
// set each blog reports whether the viewer likes it.
func (s *Service) ListPublished(ctx context.Context, q ListQuery, viewerID string) (*Page, error) {
	published := true
	return s.list(ctx, q, models.BlogFilter{
		IsPublished: &published,
		OrderBy:     models.OrderByPublishedAt,
	}, viewerID)
}

// ListOwn pages through the author's blogs in any publish state unless
// q.Published narrows it.
func (s *Service) ListOwn(ctx context.Context, userID string, q ListQuery) (*Page, error) {
	return s.list(ctx, q, models.BlogFilter{
		AuthorID:    userID,
		IsPublished: q.Published,
		OrderBy:     models.OrderByCreatedAt,
	}, userID)
}

func (s *Service) list(ctx context.Context, q ListQuery, filter models.BlogFilter, viewerID string) (*Page, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter.Tag = strings.ToLower(strings.TrimSpace(q.Tag))
	filter.Terms = SearchTerms(q.Search)
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	blogs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	for _, b := range blogs {
		markLiked(b, viewerID)
	}

	return &Page{
		Blogs:      blogs,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetPublished returns a published blog. Drafts are reported as not found
// regardless of who asks.
func (s *Service) GetPublished(ctx context.Context, id, viewerID string) (*models.Blog, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsPublished {
		return nil, apperr.New(apperr.KindNotFound, msgNotFound)
	}
	markLiked(b, viewerID)
	return b, nil
}

// GetOwn returns one of userID's blogs in any publish state.
func (s *Service) GetOwn(ctx context.Context, userID, id string) (*models.Blog, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != userID {
		return nil, apperr.New(apperr.KindForbidden, msgForbiddenView)
	}
	markLiked(b, userID)
	return b, nil
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.Blog, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = s.sanitizer.HTML(in.Description)
	in.Tags = NormalizeTags(in.Tags)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	media, err := normalizeMedia(in.Media)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &models.Blog{
		Title:       in.Title,
		Description: in.Description,
		PlainText:   s.sanitizer.PlainText(in.Description),
		Media:       media,
		Tags:        in.Tags,
		AuthorID:    userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	setPublished(b, in.IsPublished != nil && *in.IsPublished, now)

	if err := s.store.Create(ctx, b); err != nil {
		return nil, apperr.Internal(err)
	}

	slog.Info("blog created", "blog_id", b.ID, "author_id", userID, "published", b.IsPublished)
	return s.reload(ctx, b.ID, userID)
}

// Update applies the fields present in in. Only the author may update.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*models.Blog, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != userID {
		return nil, apperr.New(apperr.KindForbidden, msgForbiddenEdit)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Description != nil {
		description := s.sanitizer.HTML(*in.Description)
		in.Description = &description
	}
	if in.Tags != nil {
		in.Tags = NormalizeTags(in.Tags)
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if in.Media != nil {
		media, err := normalizeMedia(in.Media)
		if err != nil {
			return nil, err
		}
		b.Media = media
	}
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Description != nil {
		b.Description = *in.Description
		b.PlainText = s.sanitizer.PlainText(b.Description)
	}
	if in.Tags != nil {
		b.Tags = in.Tags
	}

	now := s.now().UTC()
	if in.IsPublished != nil {
		setPublished(b, *in.IsPublished, now)
	}
	b.UpdatedAt = now

	if err := s.store.Update(ctx, b); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, msgNotFound)
		}
		return nil, apperr.Internal(err)
	}

	return s.reload(ctx, b.ID, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if b.AuthorID != userID {
		return apperr.New(apperr.KindForbidden, msgForbiddenDelete)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, msgNotFound)
		}
		return apperr.Internal(err)
	}

	slog.Info("blog deleted", "blog_id", id, "author_id", userID)
	return nil
}

// ToggleLike adds userID to the blog's likes, or removes it when already
// present. Any user may like any visible blog, their own included. Drafts are
// only visible to their author, so a like on someone else's draft reports
// NotFound exactly as if the blog did not exist.
func (s *Service) ToggleLike(ctx context.Context, userID, id string) (*models.Blog, bool, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !b.IsPublished && b.AuthorID != userID {
		return nil, false, apperr.New(apperr.KindNotFound, msgNotFound)
	}

	liked, err := s.store.ToggleLike(ctx, id, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, false, apperr.New(apperr.KindNotFound, msgNotFound)
		}
		return nil, false, apperr.Internal(err)
	}

	b, err = s.reload(ctx, id, userID)
	if err != nil {
		return nil, false, err
	}
	return b, liked, nil
}

// PopularTags ranks tags of published blogs by use. Non-positive limits
// use the default; large ones are capped.
func (s *Service) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	if limit <= 0 {
		limit = constants.DefaultPopularTagsLimit
	}
	if limit > constants.MaxPopularTagsLimit {
		limit = constants.MaxPopularTagsLimit
	}

	tags, err := s.store.PopularTags(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tags, nil
}

func (s *Service) find(ctx context.Context, id string) (*models.Blog, error) {
	b, err := s.store.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, msgNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return b, nil
}

func (s *Service) reload(ctx context.Context, id, viewerID string) (*models.Blog, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	markLiked(b, viewerID)
	return b, nil
}

// setPublished moves b to the requested publish state. publishedAt is stamped
// on the transition into published when unset, kept while published, and
// cleared on unpublish so a later republish gets a fresh stamp.
func setPublished(b *models.Blog, publish bool, now time.Time) {
	if !publish {
		b.IsPublished = false
		b.PublishedAt = nil
		return
	}
	b.IsPublished = true
	if b.PublishedAt == nil {
		stamp := now
		b.PublishedAt = &stamp
	}
}

func markLiked(b *models.Blog, viewerID string) {
	if viewerID == "" {
		return
	}
	liked := b.HasLike(viewerID)
	b.LikedByMe = &liked
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = constants.DefaultPage
	}
	if limit < 1 {
		limit = constants.DefaultPageLimit
	}
	if limit > constants.MaxPageLimit {
		limit = constants.MaxPageLimit
	}
	return models.ClampPage(page, limit), limit
}
