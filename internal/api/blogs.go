package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogify/internal/blog"
	"blogify/internal/constants"
)

type BlogHandler struct {
	service *blog.Service
}

func NewBlogHandler(service *blog.Service) *BlogHandler {
	return &BlogHandler{service: service}
}

// GET /api/blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListPublished(r.Context(), listQuery(r), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blogs retrieved successfully", page)
}

// GET /api/blogs/tags/popular
func (h *BlogHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveInt(r.URL.Query().Get("limit"), constants.DefaultPopularTagsLimit)

	tags, err := h.service.PopularTags(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Popular tags retrieved successfully", tags)
}

// GET /api/blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog retrieved successfully", b)
}

// GET /api/blogs/my
func (h *BlogHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	q := listQuery(r)
	q.Published = optionalBool(r.URL.Query().Get("published"))

	page, err := h.service.ListOwn(r.Context(), userID(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blogs retrieved successfully", page)
}

// GET /api/blogs/my/{id}
func (h *BlogHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetOwn(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog retrieved successfully", b)
}

// POST /api/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req blog.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.service.Create(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Blog created successfully", b)
}

// PUT /api/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req blog.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.service.Update(r.Context(), userID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog updated successfully", b)
}

// DELETE /api/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog deleted successfully", nil)
}

// POST /api/blogs/{id}/like
func (h *BlogHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	b, liked, err := h.service.ToggleLike(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Like removed"
	if liked {
		message = "Like added"
	}
	writeSuccess(w, http.StatusOK, message, b)
}

func listQuery(r *http.Request) blog.ListQuery {
	q := r.URL.Query()
	page, limit := pageParams(q)
	return blog.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
	}
}
