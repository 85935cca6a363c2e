package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/internal/services"
)

// PostHandler handles HTTP requests related to posts and the feed
type PostHandler struct {
	content        *services.ContentService
	engagement     *services.EngagementService
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(content *services.ContentService, engagement *services.EngagementService, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		content:        content,
		engagement:     engagement,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.PUT("/posts/:id/like", h.ToggleLike)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// EnrichedPost is a post with author info and the caller's like flag
type EnrichedPost struct {
	models.Post
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
}

// enrichPosts attaches authors in one lookup. Posts of deleted users keep an
// empty author.
func (h *PostHandler) enrichPosts(c echo.Context, viewerID string, posts []models.Post) []EnrichedPost {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range posts {
		if !seen[p.PostedBy] {
			seen[p.PostedBy] = true
			ids = append(ids, p.PostedBy)
		}
	}

	authors := make(map[string]models.UserCompact, len(ids))
	if len(ids) > 0 {
		users, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
		if err == nil {
			for i := range users {
				authors[users[i].IDHex()] = users[i].ToCompact()
			}
		}
	}

	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		enriched[i] = EnrichedPost{
			Post:    p,
			Author:  authors[p.PostedBy],
			IsLiked: p.LikedBy(viewerID),
		}
	}
	return enriched
}

// GetFeed returns the caller's posts and their friends' posts, newest first
func (h *PostHandler) GetFeed(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c, 10)
	skip := int64((page - 1) * limit)

	posts, err := h.content.Feed(c.Request().Context(), userID, skip, int64(limit))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": h.enrichPosts(c, userID, posts),
		},
		"meta": echo.Map{
			"currentPage":     page,
			"itemsPerPage":    limit,
			"hasNextPage":     len(posts) == limit,
			"hasPreviousPage": page > 1,
		},
	})
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.CreatePost(c.Request().Context(), userID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	post, err := h.content.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, h.enrichPosts(c, userID, []models.Post{*post})[0])
}

// GetUserPosts lists the posts of :id, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 {
		limit = 10
	}

	posts, err := h.content.GetPostsByUser(c.Request().Context(), c.Param("id"), skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, h.enrichPosts(c, userID, posts))
}

// UpdatePost updates an existing post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.UpdatePost(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, post)
}

// DeletePost deletes a post owned by the caller along with its comments
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.content.DeletePost(c.Request().Context(), userID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleLike likes or unlikes a post
func (h *PostHandler) ToggleLike(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	post, liked, err := h.engagement.TogglePostLike(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{
		"liked":       liked,
		"likes_count": post.LikesCount,
		"post":        post,
	})
}
