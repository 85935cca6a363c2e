package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/friendcircle/backend/internal/services"
)

// FriendshipHandler exposes the friend request state machine over HTTP. The
// acting user always comes from the token and the other user from the path.
type FriendshipHandler struct {
	friendships *services.FriendshipService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendships *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("/friends", h.GetMyFriends)
	g.GET("/users/friend-requests", h.GetFriendRequests)
	g.GET("/users/:id/friends", h.GetFriends)
	g.GET("/users/:id/friendship", h.GetFriendshipStatus)
	g.PUT("/users/:id/friend-request", h.SendFriendRequest)
	g.PUT("/users/:id/accept-friend-request", h.AcceptFriendRequest)
	g.DELETE("/users/:id/delete-friend-request", h.RejectFriendRequest)
	g.DELETE("/users/:id/delete-friend", h.Unfriend)
}

// transition runs one state machine operation between the caller and :id.
func (h *FriendshipHandler) transition(c echo.Context, op func(c echo.Context, actorID, otherID string) error, message string) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := op(c, actorID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"message": message})
}

func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actorID, otherID string) error {
		return h.friendships.SendRequest(c.Request().Context(), actorID, otherID)
	}, "Friend request sent")
}

func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actorID, otherID string) error {
		return h.friendships.AcceptRequest(c.Request().Context(), actorID, otherID)
	}, "Friend request accepted")
}

func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actorID, otherID string) error {
		return h.friendships.RejectRequest(c.Request().Context(), actorID, otherID)
	}, "Friend request deleted")
}

func (h *FriendshipHandler) Unfriend(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actorID, otherID string) error {
		return h.friendships.Unfriend(c.Request().Context(), actorID, otherID)
	}, "Friend removed")
}

func (h *FriendshipHandler) GetFriendshipStatus(c echo.Context) error {
	viewerID, err := currentUserID(c)
	if err != nil {
		return err
	}
	view, err := h.friendships.Status(c.Request().Context(), viewerID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, view)
}

func (h *FriendshipHandler) GetMyFriends(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	return h.friendsOf(c, userID)
}

// GetFriends lists the friends of any user.
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	return h.friendsOf(c, c.Param("id"))
}

func (h *FriendshipHandler) friendsOf(c echo.Context, userID string) error {
	friends, err := h.friendships.GetFriends(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, friends)
}

// GetFriendRequests lists the senders of the caller's pending requests.
func (h *FriendshipHandler) GetFriendRequests(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	senders, err := h.friendships.GetFriendRequests(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, senders)
}
