package models

import "gorm.io/gorm"

// Comment represents a comment on a post
type Comment struct {
	gorm.Model
	PostID     string `json:"post_id" gorm:"size:24;index"`   // MongoDB ObjectID of the post as hex
	PostedBy   string `json:"posted_by" gorm:"size:24;index"` // hex id of the author
	Text       string `json:"text"`
	LikesCount int    `json:"likes_count" gorm:"default:0"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
