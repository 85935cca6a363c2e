package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	content               *services.ContentService
	engagement            *services.EngagementService
	userRepository        repositories.UserRepository
	commentLikeRepository repositories.CommentLikeRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	content *services.ContentService,
	engagement *services.EngagementService,
	userRepo repositories.UserRepository,
	commentLikeRepo repositories.CommentLikeRepository,
) *CommentHandler {
	return &CommentHandler{
		content:               content,
		engagement:            engagement,
		userRepository:        userRepo,
		commentLikeRepository: commentLikeRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.GET("/comments/:id", h.GetComment)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.PUT("/comments/:id/like", h.ToggleLike)
	g.GET("/comments/:id/likes", h.GetLikers)
}

// EnrichedComment is a comment with author info and the caller's like flag
type EnrichedComment struct {
	models.Comment
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
}

func (h *CommentHandler) enrichComments(c echo.Context, viewerID string, comments []models.Comment) []EnrichedComment {
	ctx := c.Request().Context()
	authors := make(map[string]models.UserCompact)
	var ids []string
	for _, cm := range comments {
		if _, ok := authors[cm.PostedBy]; !ok {
			authors[cm.PostedBy] = models.UserCompact{}
			ids = append(ids, cm.PostedBy)
		}
	}
	if len(ids) > 0 {
		if users, err := h.userRepository.GetUsersByIDs(ctx, ids); err == nil {
			for i := range users {
				authors[users[i].IDHex()] = users[i].ToCompact()
			}
		}
	}

	enriched := make([]EnrichedComment, len(comments))
	for i, cm := range comments {
		liked, _ := h.commentLikeRepository.HasUserLikedComment(ctx, cm.ID, viewerID)
		enriched[i] = EnrichedComment{Comment: cm, Author: authors[cm.PostedBy], IsLiked: liked}
	}
	return enriched
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.engagement.AddComment(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// GetCommentsByPostID retrieves all comments for a specific post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	comments, err := h.content.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, h.enrichComments(c, userID, comments))
}

func (h *CommentHandler) GetComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	comment, err := h.content.GetComment(c.Request().Context(), commentID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, h.enrichComments(c, userID, []models.Comment{*comment})[0])
}

// UpdateComment updates an existing comment owned by the caller
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.content.UpdateComment(c.Request().Context(), userID, commentID, req.Text)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, comment)
}

// DeleteComment deletes a comment owned by the caller
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.content.DeleteComment(c.Request().Context(), userID, commentID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleLike likes or unlikes a comment
func (h *CommentHandler) ToggleLike(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	comment, liked, err := h.engagement.ToggleCommentLike(c.Request().Context(), userID, commentID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{
		"liked":       liked,
		"likes_count": comment.LikesCount,
		"comment":     comment,
	})
}

// GetLikers lists the users who liked a comment
func (h *CommentHandler) GetLikers(c echo.Context) error {
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.content.GetComment(ctx, commentID); err != nil {
		return toHTTPError(err)
	}
	ids, err := h.commentLikeRepository.GetLikers(ctx, commentID)
	if err != nil {
		return toHTTPError(err)
	}
	likers := []models.UserCompact{}
	if len(ids) > 0 {
		users, err := h.userRepository.GetUsersByIDs(ctx, ids)
		if err != nil {
			return toHTTPError(err)
		}
		for i := range users {
			likers = append(likers, users[i].ToCompact())
		}
	}
	return success(c, http.StatusOK, likers)
}
