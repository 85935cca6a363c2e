package models

// FriendshipStatus describes the relation between two users as seen by the first one.
type FriendshipStatus string

const (
	FriendshipNone FriendshipStatus = "none"
	// FriendshipRequested means the viewer sent a request that is still pending.
	FriendshipRequested FriendshipStatus = "requested"
	// FriendshipIncoming means the other user sent the viewer a pending request.
	FriendshipIncoming FriendshipStatus = "incoming"
	FriendshipFriends  FriendshipStatus = "friends"
)

// FriendshipView is returned by the friendship status endpoint.
type FriendshipView struct {
	UserID string           `json:"user_id"`
	Status FriendshipStatus `json:"status"`
}
