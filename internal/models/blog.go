package models

import (
	"math"
	"time"
)

type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type Blog struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Media       []Media       `json:"media"`
	Tags        []string      `json:"tags"`
	AuthorID    string        `json:"authorId"`
	Author      *UserSummary  `json:"author,omitempty"`
	IsPublished bool          `json:"isPublished"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	Likes       []UserSummary `json:"likes"`
	LikeCount   int           `json:"likeCount"`
	LikedByMe   *bool         `json:"likedByMe,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// PlainText is the markup-free description used for search matching.
	PlainText string `json:"-"`
}

// HasLike reports whether userID is in the blog's like set.
func (b *Blog) HasLike(userID string) bool {
	for _, l := range b.Likes {
		if l.ID == userID {
			return true
		}
	}
	return false
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type BlogOrder int

const (
	OrderByPublishedAt BlogOrder = iota
	OrderByCreatedAt
)

// BlogFilter selects a page of blogs. Terms holds the lowercased search
// terms; when non-empty results are ranked by relevance first.
type BlogFilter struct {
	AuthorID    string
	IsPublished *bool
	Tag         string
	Terms       []string
	OrderBy     BlogOrder
	Offset      int
	Limit       int
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPagination computes page metadata for total matching items.
// ClampPage caps page so the row offset (page-1)*limit stays within int32.
// Pages beyond the cap are empty anyway.
func ClampPage(page, limit int) int {
	if limit < 1 {
		return page
	}
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		return maxPage
	}
	return page
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
