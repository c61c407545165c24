package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/draftline/posts-service/internal/api/metrics"
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// PostHandler handles HTTP requests for post lifecycle operations.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// observe counts the operation outcome by error kind.
func observe(operation string, err error) error {
	result := metrics.ResultOK
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.OperationsTotal.WithLabelValues(operation, result).Inc()
	return err
}

// ListPublic handles GET /v1/posts.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {object}  listPostsResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/posts [get]
func (h *PostHandler) ListPublic(c echo.Context) error {
	posts, err := h.service.ListPublic(c.Request().Context())
	if err != nil {
		return observe("list_public", err)
	}
	observe("list_public", nil)
	return c.JSON(http.StatusOK, toListResponse(posts))
}

// ListOwned handles GET /v1/me/posts, the author's dashboard including drafts.
//
// @Summary      List the caller's posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listPostsResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/me/posts [get]
func (h *PostHandler) ListOwned(c echo.Context) error {
	posts, err := h.service.ListOwned(c.Request().Context(), callerFrom(c))
	if err != nil {
		return observe("list_owned", err)
	}
	observe("list_owned", nil)
	return c.JSON(http.StatusOK, toListResponse(posts))
}

// Get handles GET /v1/posts/:id.
//
// @Summary      Get a post by id
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  postResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return observe("get", err)
	}
	observe("get", nil)
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Create handles POST /v1/posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string       false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      postRequest  true   "Post"
// @Success      201              {object}  postResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /v1/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return observe("create", domain.ErrInvalidPayload)
	}

	post, err := h.service.Create(c.Request().Context(), callerFrom(c), ports.CreatePostInput{
		PostInput:      toPostInput(req),
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")),
	})
	if err != nil {
		return observe("create", err)
	}
	observe("create", nil)

	c.Response().Header().Set(echo.HeaderLocation, "/v1/posts/"+post.ID)
	return c.JSON(http.StatusCreated, toPostResponse(post))
}

// Update handles PUT /v1/posts/:id. Omitted content keeps the stored
// content; omitted published means unpublished.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Post id"
// @Param        body  body      postRequest  true  "Post"
// @Success      200   {object}  postResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return observe("update", domain.ErrInvalidPayload)
	}

	post, err := h.service.Update(c.Request().Context(), callerFrom(c), c.Param("id"), toPostInput(req))
	if err != nil {
		return observe("update", err)
	}
	observe("update", nil)
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// SetPublished handles PATCH /v1/posts/:id/published.
//
// @Summary      Publish or unpublish a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Post id"
// @Param        body  body      setPublishedRequest  true  "Desired state"
// @Success      200   {object}  postResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/posts/{id}/published [patch]
func (h *PostHandler) SetPublished(c echo.Context) error {
	var req setPublishedRequest
	if err := c.Bind(&req); err != nil {
		return observe("set_published", domain.ErrInvalidPayload)
	}
	if err := c.Validate(&req); err != nil {
		return observe("set_published", err)
	}

	post, err := h.service.SetPublished(c.Request().Context(), callerFrom(c), c.Param("id"), *req.Published)
	if err != nil {
		return observe("set_published", err)
	}
	observe("set_published", nil)
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Delete handles DELETE /v1/posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), callerFrom(c), c.Param("id")); err != nil {
		return observe("delete", err)
	}
	observe("delete", nil)
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
