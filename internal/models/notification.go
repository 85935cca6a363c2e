package models

import "time"

type NotificationType string

const (
	NotificationLikePost      NotificationType = "like_post"
	NotificationLikeComment   NotificationType = "like_comment"
	NotificationComment       NotificationType = "comment"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
)

// Notification is one ledger entry (PostgreSQL). Sender and receiver are user hex ids.
type Notification struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	Type       NotificationType `json:"type" gorm:"size:30;index"`
	SenderID   string           `json:"sender_id" gorm:"size:24;index"`
	ReceiverID string           `json:"receiver_id" gorm:"size:24;index"`
	TargetID   string           `json:"target_id"`                  // post ID, comment ID or user ID
	TargetType string           `json:"target_type" gorm:"size:20"` // post, comment, user
	Message    string           `json:"message"`
	Read       bool             `json:"read" gorm:"column:is_read;default:false;index"`
	CreatedAt  time.Time        `json:"created_at" gorm:"index"`
}

// Event is the envelope pushed over a live connection.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	// EventNotification carries a freshly emitted Notification.
	EventNotification = "get-notification"
	// EventOnline is sent by clients to attach their connection to their user.
	EventOnline = "online"
)

// GroupedNotifications buckets a receiver's ledger by age.
type GroupedNotifications struct {
	Today     []Notification `json:"today"`
	Yesterday []Notification `json:"yesterday"`
	ThisWeek  []Notification `json:"this_week"`
	Older     []Notification `json:"older"`
}
