package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// EngagementService applies likes and comments and notifies the owner of the
// engaged content. Notifications follow the committed mutation and never fail it.
type EngagementService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	likes    repositories.CommentLikeRepository
	notifier *Notifier
	metrics  *observability.Metrics
}

func NewEngagementService(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	likes repositories.CommentLikeRepository,
	notifier *Notifier,
	metrics *observability.Metrics,
) *EngagementService {
	return &EngagementService{
		users:    users,
		posts:    posts,
		comments: comments,
		likes:    likes,
		notifier: notifier,
		metrics:  metrics,
	}
}

// TogglePostLike likes the post if actorID has not liked it yet, otherwise
// removes the like. Only a new like on someone else's post notifies its owner.
func (s *EngagementService) TogglePostLike(ctx context.Context, actorID, postID string) (*models.Post, bool, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, false, storage("user", err)
	}
	post, liked, err := s.posts.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return nil, false, storage("post", err)
	}

	if liked && post.PostedBy != actorID {
		emitAfterCommit(ctx, s.notifier, s.metrics, &models.Notification{
			Type:       models.NotificationLikePost,
			SenderID:   actorID,
			ReceiverID: post.PostedBy,
			TargetID:   postID,
			TargetType: "post",
			Message:    actor.Name + " liked your post",
		})
	}
	return post, liked, nil
}

// ToggleCommentLike is TogglePostLike for comments.
func (s *EngagementService) ToggleCommentLike(ctx context.Context, actorID string, commentID uint) (*models.Comment, bool, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, false, storage("user", err)
	}
	comment, liked, err := s.likes.ToggleLike(ctx, commentID, actorID)
	if err != nil {
		return nil, false, storage("comment", err)
	}

	if liked && comment.PostedBy != actorID {
		emitAfterCommit(ctx, s.notifier, s.metrics, &models.Notification{
			Type:       models.NotificationLikeComment,
			SenderID:   actorID,
			ReceiverID: comment.PostedBy,
			TargetID:   strconv.FormatUint(uint64(comment.ID), 10),
			TargetType: "comment",
			Message:    actor.Name + " liked your comment",
		})
	}
	return comment, liked, nil
}

// AddComment creates a comment by actorID on postID and notifies the post owner
// unless they wrote the comment.
func (s *EngagementService) AddComment(ctx context.Context, actorID, postID, text string) (*models.Comment, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, storage("user", err)
	}
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storage("post", err)
	}

	comment := &models.Comment{PostID: postID, PostedBy: actorID, Text: text}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, storage("comment", err)
	}

	if err := s.posts.IncrementCommentsCount(ctx, postID); err != nil {
		s.metrics.RecordSideEffectFailure("counter")
		logger.Warn("Failed to increment comments count", zap.String("post_id", postID), zap.Error(err))
	}

	if comment.PostedBy != post.PostedBy {
		emitAfterCommit(ctx, s.notifier, s.metrics, &models.Notification{
			Type:       models.NotificationComment,
			SenderID:   actorID,
			ReceiverID: post.PostedBy,
			TargetID:   postID,
			TargetType: "post",
			Message:    actor.Name + " commented on your post",
		})
	}
	return comment, nil
}
