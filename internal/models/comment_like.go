package models

import "time"

// CommentLike is one member of a comment's likes set. The unique index makes
// (comment, user) membership a set rather than a counter.
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	UserID    string    `json:"user_id" gorm:"size:24;index;uniqueIndex:idx_comment_user_like"`
	CreatedAt time.Time `json:"created_at"`
}
