package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// ContentService owns post and comment CRUD. Ownership is the only gate on
// update and delete.
type ContentService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	metrics  *observability.Metrics
}

func NewContentService(users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, metrics *observability.Metrics) *ContentService {
	return &ContentService{users: users, posts: posts, comments: comments, metrics: metrics}
}

func (s *ContentService) CreatePost(ctx context.Context, actorID string, req models.CreatePostRequest) (*models.Post, error) {
	post := &models.Post{PostedBy: actorID, Text: req.Text, ImageURLs: req.ImageURLs}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, storage("post", err)
	}
	return post, nil
}

func (s *ContentService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storage("post", err)
	}
	return post, nil
}

func (s *ContentService) GetPostsByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	posts, err := s.posts.GetPostsByUserID(ctx, userID, skip, limit)
	if err != nil {
		return nil, storage("posts", err)
	}
	return posts, nil
}

// Feed returns the posts of userID and of their friends, newest first.
func (s *ContentService) Feed(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storage("user", err)
	}
	authors := append([]string{userID}, user.Friends...)
	posts, err := s.posts.GetFeed(ctx, authors, skip, limit)
	if err != nil {
		return nil, storage("feed", err)
	}
	return posts, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, actorID, postID string, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.ownedPost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if req.Text != "" {
		post.Text = req.Text
	}
	if req.ImageURLs != nil {
		post.ImageURLs = req.ImageURLs
	}
	if err := s.posts.UpdatePost(ctx, postID, post); err != nil {
		return nil, storage("post", err)
	}
	return post, nil
}

// DeletePost removes the post, then its comments and their likes. A failed
// cascade leaves orphaned comments that are unreachable once the post is gone;
// it is logged rather than reported.
func (s *ContentService) DeletePost(ctx context.Context, actorID, postID string) error {
	if _, err := s.ownedPost(ctx, actorID, postID); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return storage("post", err)
	}
	n, err := s.comments.DeleteCommentsByPostID(ctx, postID)
	if err != nil {
		s.metrics.RecordSideEffectFailure("cascade")
		logger.Error("Failed to delete comments of deleted post", zap.String("post_id", postID), zap.Error(err))
		return nil
	}
	logger.Debug("Deleted post", zap.String("post_id", postID), zap.Int64("comments", n))
	return nil
}

func (s *ContentService) ownedPost(ctx context.Context, actorID, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storage("post", err)
	}
	if post.PostedBy != actorID {
		return nil, unauthorized("you can only modify your own posts")
	}
	return post, nil
}

// ListComments returns the comments of an existing post, oldest first.
func (s *ContentService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, storage("post", err)
	}
	comments, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, storage("comments", err)
	}
	return comments, nil
}

func (s *ContentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, storage("comment", err)
	}
	return comment, nil
}

func (s *ContentService) UpdateComment(ctx context.Context, actorID string, commentID uint, text string) (*models.Comment, error) {
	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, storage("comment", err)
	}
	return comment, nil
}

func (s *ContentService) DeleteComment(ctx context.Context, actorID string, commentID uint) error {
	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return storage("comment", err)
	}
	if err := s.posts.DecrementCommentsCount(ctx, comment.PostID); err != nil {
		s.metrics.RecordSideEffectFailure("counter")
		logger.Warn("Failed to decrement comments count", zap.String("post_id", comment.PostID), zap.Error(err))
	}
	return nil
}

func (s *ContentService) ownedComment(ctx context.Context, actorID string, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, storage("comment", err)
	}
	if comment.PostedBy != actorID {
		return nil, unauthorized("you can only modify your own comments")
	}
	return comment, nil
}
