package models

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member of the network stored in MongoDB. Friends and FriendRequests
// hold user ids as hex strings; FriendRequests are the *incoming* pending requests.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	Password       string             `json:"-" bson:"password,omitempty"`
	FirebaseUID    string             `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"`
	Friends        []string           `json:"friends" bson:"friends"`
	FriendRequests []string           `json:"friend_requests" bson:"friend_requests"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// IDHex returns the user id in the string form used across collections and tables.
func (u *User) IDHex() string {
	return u.ID.Hex()
}

// HasFriend reports whether id is in the user's friends list.
func (u *User) HasFriend(id string) bool {
	return slices.Contains(u.Friends, id)
}

// HasFriendRequestFrom reports whether id has a pending request addressed to this user.
func (u *User) HasFriendRequestFrom(id string) bool {
	return slices.Contains(u.FriendRequests, id)
}

// UserCompact is the public card of a user embedded in other responses.
type UserCompact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.IDHex(), Name: u.Name}
}

// PublicUser is what other members see of a user. Email and incoming requests
// stay with the owner.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Friends   []string  `json:"friends"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToPublic() PublicUser {
	friends := u.Friends
	if friends == nil {
		friends = []string{}
	}
	return PublicUser{ID: u.IDHex(), Name: u.Name, Friends: friends, CreatedAt: u.CreatedAt}
}

// PublicUsers maps users to their public views.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	return out
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
