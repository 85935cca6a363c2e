package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/anonto42/friendcircle/backend/internal/models"
)

// CommentLikeRepository defines the interface for comment like operations
type CommentLikeRepository interface {
	// ToggleLike flips userID's membership in the comment's likes set and keeps
	// the comment's likes_count in step, in one transaction. It returns the
	// comment as it is after the flip.
	ToggleLike(ctx context.Context, commentID uint, userID string) (*models.Comment, bool, error)
	HasUserLikedComment(ctx context.Context, commentID uint, userID string) (bool, error)
	GetLikers(ctx context.Context, commentID uint) ([]string, error)
}

type postgresCommentLikeRepository struct {
	db *gorm.DB
}

func NewPostgresCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &postgresCommentLikeRepository{db: db}
}

func (r *postgresCommentLikeRepository) ToggleLike(ctx context.Context, commentID uint, userID string) (*models.Comment, bool, error) {
	var (
		comment models.Comment
		liked   bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, commentID).Error; err != nil {
			return normalize(err)
		}

		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
				return err
			}
			delta = 1
			liked = true
		}

		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error; err != nil {
			return err
		}
		return tx.First(&comment, commentID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &comment, liked, nil
}

func (r *postgresCommentLikeRepository) HasUserLikedComment(ctx context.Context, commentID uint, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count).Error
	return count > 0, err
}

func (r *postgresCommentLikeRepository) GetLikers(ctx context.Context, commentID uint) ([]string, error) {
	likers := []string{}
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Pluck("user_id", &likers).Error
	return likers, err
}
