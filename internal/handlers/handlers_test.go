package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/friendcircle/backend/internal/middleware"
	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/internal/repositories/repotest"
	"github.com/anonto42/friendcircle/backend/internal/services"
	"github.com/anonto42/friendcircle/backend/internal/validators"
)

const testSecret = "test-secret"

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (v *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := v.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("invalid token")
}

type testServer struct {
	e             *echo.Echo
	auth          *AuthHandler
	users         *repotest.Users
	posts         *repotest.Posts
	comments      *repotest.Comments
	notifications *repotest.Notifications
}

func newTestServer(t *testing.T, verifier IDTokenVerifier) *testServer {
	t.Helper()
	s := &testServer{
		users:         repotest.NewUsers(),
		posts:         repotest.NewPosts(),
		comments:      repotest.NewComments(),
		notifications: repotest.NewNotifications(),
	}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	notifier := services.NewNotifier(s.notifications, nil, metrics)
	friendships := services.NewFriendshipService(s.users, notifier, metrics, 3).WithRetryInterval(time.Millisecond)
	engagement := services.NewEngagementService(s.users, s.posts, s.comments, s.comments, notifier, metrics)
	content := services.NewContentService(s.users, s.posts, s.comments, metrics)

	s.e = echo.New()
	s.e.Validator = validators.NewValidator()
	s.auth = NewAuthHandler(s.users, verifier, testSecret)
	s.auth.RegisterAuthRoutes(s.e.Group("/api/v1/auth"))

	api := s.e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(testSecret))
	NewUserHandler(s.users).RegisterUserRoutes(api)
	NewFriendshipHandler(friendships).RegisterFriendshipRoutes(api)
	NewPostHandler(content, engagement, s.users).RegisterPostRoutes(api)
	NewCommentHandler(content, engagement, s.users, s.comments).RegisterCommentRoutes(api)
	NewNotificationHandler(s.notifications, s.users).RegisterNotificationRoutes(api)
	return s
}

// seed creates a user and returns its id and a bearer token for it.
func (s *testServer) seed(t *testing.T, name string) (string, string) {
	t.Helper()
	id := s.users.Seed(name)
	token, err := s.auth.generateJWT(s.users.Snapshot(id))
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Message string          `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, out), rec.Body.String())
}

// =============================================================================
// Auth
// =============================================================================

func TestAuth_SignupThenSignIn(t *testing.T) {
	s := newTestServer(t, nil)
	creds := map[string]string{"name": "Alice", "email": "Alice@Example.com", "password": "secret1"}

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, "alice@example.com", body.User.Email)
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", body.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decodeData(t, rec, &me)
	assert.Equal(t, "Alice", me.Name)
}

func TestAuth_SignInRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_SignupValidatesPayload(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"name": "A", "email": "not-an-email", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_FirebaseLoginDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuth_FirebaseLoginCreatesThenReusesUser(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "fb-1", Claims: map[string]interface{}{"email": "Dana@Example.com", "name": "Dana"}},
	}}
	s := newTestServer(t, verifier)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "good"})
	require.Equal(t, http.StatusOK, rec.Code)

	users, err := s.users.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "fb-1", users[0].FirebaseUID)
	assert.Equal(t, "dana@example.com", users[0].Email)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_FirebaseLoginLinksExistingEmail(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "fb-2", Claims: map[string]interface{}{"email": "alice@example.com"}},
	}}
	s := newTestServer(t, verifier)
	aliceID := s.users.Seed("Alice")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fb-2", s.users.Snapshot(aliceID).FirebaseUID)
}

// =============================================================================
// Middleware
// =============================================================================

func TestJWTMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.seed(t, "Alice")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil).Code)

	other := NewAuthHandler(s.users, nil, "other-secret")
	forged, err := other.generateJWT(&models.User{Email: "x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/users/me", forged, nil).Code)

	// query parameter fallback
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me?token="+token, nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// Friendship
// =============================================================================

func TestFriendship_RequestAcceptUnfriend(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	bobID, bob := s.seed(t, "Bob")

	rec := s.do(t, http.MethodPut, "/api/v1/users/"+bobID+"/friend-request", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/v1/users/"+bobID+"/friend-request", alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "friend request already sent", decode(t, rec).Message)

	rec = s.do(t, http.MethodGet, "/api/v1/users/friend-requests", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var senders []models.User
	decodeData(t, rec, &senders)
	require.Len(t, senders, 1)
	assert.Equal(t, aliceID, senders[0].IDHex())

	rec = s.do(t, http.MethodPut, "/api/v1/users/"+aliceID+"/accept-friend-request", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/users/"+aliceID+"/friendship", bob, nil)
	var view models.FriendshipView
	decodeData(t, rec, &view)
	assert.Equal(t, models.FriendshipFriends, view.Status)

	rec = s.do(t, http.MethodGet, "/api/v1/users/"+bobID+"/friends", alice, nil)
	var friends []models.User
	decodeData(t, rec, &friends)
	require.Len(t, friends, 1)
	assert.Equal(t, aliceID, friends[0].IDHex())

	rec = s.do(t, http.MethodDelete, "/api/v1/users/"+bobID+"/delete-friend", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/users/"+bobID+"/delete-friend", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, s.users.Snapshot(aliceID).Friends)
	assert.Empty(t, s.users.Snapshot(bobID).Friends)

	var types []models.NotificationType
	for _, n := range s.notifications.All() {
		types = append(types, n.Type)
	}
	assert.ElementsMatch(t, []models.NotificationType{models.NotificationFriendRequest, models.NotificationFriendAccept}, types)
}

func TestFriendship_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	bobID, bob := s.seed(t, "Bob")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"request to self", http.MethodPut, "/api/v1/users/" + aliceID + "/friend-request", alice, http.StatusBadRequest},
		{"request to unknown user", http.MethodPut, "/api/v1/users/000000000000000000000000/friend-request", alice, http.StatusNotFound},
		{"accept without request", http.MethodPut, "/api/v1/users/" + bobID + "/accept-friend-request", alice, http.StatusBadRequest},
		{"reject without request", http.MethodDelete, "/api/v1/users/" + aliceID + "/delete-friend-request", bob, http.StatusBadRequest},
		{"unfriend a stranger", http.MethodDelete, "/api/v1/users/" + bobID + "/delete-friend", alice, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec).Message)
		})
	}
}

func TestUsers_OthersSeeThePublicView(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	_, bob := s.seed(t, "Bob")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/users/"+aliceID+"/friend-request", bob, nil).Code)

	var seen map[string]any
	decodeData(t, s.do(t, http.MethodGet, "/api/v1/users/"+aliceID, bob, nil), &seen)
	assert.Equal(t, "Alice", seen["name"])
	assert.NotContains(t, seen, "email")
	assert.NotContains(t, seen, "friend_requests")

	var own models.User
	decodeData(t, s.do(t, http.MethodGet, "/api/v1/users/"+aliceID, alice, nil), &own)
	assert.Equal(t, "alice@example.com", own.Email)
	assert.Len(t, own.FriendRequests, 1)

	for _, path := range []string{"/api/v1/users", "/api/v1/users/search?q=ali"} {
		var listed []map[string]any
		decodeData(t, s.do(t, http.MethodGet, path, bob, nil), &listed)
		require.NotEmpty(t, listed, path)
		for _, u := range listed {
			assert.NotContains(t, u, "email", path)
			assert.NotContains(t, u, "friend_requests", path)
		}
	}
}

// =============================================================================
// Posts and comments
// =============================================================================

func createPost(t *testing.T, s *testServer, token, text string) models.Post {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/posts", token, map[string]string{"text": text})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	decodeData(t, rec, &post)
	return post
}

func TestPosts_OwnershipAndLikes(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	bobID, bob := s.seed(t, "Bob")
	post := createPost(t, s, alice, "hello")
	path := "/api/v1/posts/" + post.ID.Hex()

	rec := s.do(t, http.MethodPut, path, bob, map[string]string{"text": "mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, path+"/like", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var like struct {
		Liked      bool `json:"liked"`
		LikesCount int  `json:"likes_count"`
	}
	decodeData(t, rec, &like)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikesCount)

	rec = s.do(t, http.MethodGet, path, bob, nil)
	var enriched EnrichedPost
	decodeData(t, rec, &enriched)
	assert.True(t, enriched.IsLiked)
	assert.Equal(t, aliceID, enriched.Author.ID)

	rec = s.do(t, http.MethodPut, path+"/like", bob, nil)
	decodeData(t, rec, &like)
	assert.False(t, like.Liked)
	assert.Equal(t, 0, like.LikesCount)

	// own like is silent
	s.do(t, http.MethodPut, path+"/like", alice, nil)

	all := s.notifications.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.NotificationLikePost, all[0].Type)
	assert.Equal(t, bobID, all[0].SenderID)
	assert.Equal(t, aliceID, all[0].ReceiverID)

	rec = s.do(t, http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPosts_FeedShowsFriendsOnly(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	bobID, bob := s.seed(t, "Bob")
	_, carol := s.seed(t, "Carol")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/users/"+bobID+"/friend-request", alice, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/users/"+aliceID+"/accept-friend-request", bob, nil).Code)

	createPost(t, s, alice, "from alice")
	createPost(t, s, bob, "from bob")
	createPost(t, s, carol, "from carol")

	rec := s.do(t, http.MethodGet, "/api/v1/feed", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Posts []EnrichedPost `json:"posts"`
	}
	decodeData(t, rec, &data)
	require.Len(t, data.Posts, 2)
	assert.Equal(t, "from bob", data.Posts[0].Text)
	assert.Equal(t, "Bob", data.Posts[0].Author.Name)
	assert.Equal(t, "from alice", data.Posts[1].Text)
}

func TestComments_NotifyPostOwnerAndLike(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	_, bob := s.seed(t, "Bob")
	post := createPost(t, s, alice, "hello")
	commentsPath := "/api/v1/posts/" + post.ID.Hex() + "/comments"

	rec := s.do(t, http.MethodPost, commentsPath, bob, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment models.Comment
	decodeData(t, rec, &comment)

	rec = s.do(t, http.MethodPost, commentsPath, alice, map[string]string{"text": "thanks"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, commentsPath, alice, nil)
	var listed []EnrichedComment
	decodeData(t, rec, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "Bob", listed[0].Author.Name)

	commentPath := fmt.Sprintf("/api/v1/comments/%d", comment.ID)
	rec = s.do(t, http.MethodPut, commentPath+"/like", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, commentPath+"/likes", bob, nil)
	var likers []models.UserCompact
	decodeData(t, rec, &likers)
	require.Len(t, likers, 1)
	assert.Equal(t, aliceID, likers[0].ID)

	rec = s.do(t, http.MethodPut, commentPath, alice, map[string]string{"text": "edited"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, commentPath, bob, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var got []models.NotificationType
	for _, n := range s.notifications.All() {
		got = append(got, n.Type)
		assert.NotEqual(t, n.SenderID, n.ReceiverID)
	}
	assert.ElementsMatch(t, []models.NotificationType{models.NotificationComment, models.NotificationLikeComment}, got)
}

func TestComments_InvalidID(t *testing.T) {
	s := newTestServer(t, nil)
	_, alice := s.seed(t, "Alice")
	rec := s.do(t, http.MethodPut, "/api/v1/comments/abc/like", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Notifications
// =============================================================================

func TestNotifications_ScopedToReceiver(t *testing.T) {
	s := newTestServer(t, nil)
	aliceID, alice := s.seed(t, "Alice")
	bobID, bob := s.seed(t, "Bob")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.notifications.CreateNotification(ctx, &models.Notification{
			Type: models.NotificationLikePost, SenderID: bobID, ReceiverID: aliceID, Message: "Bob liked your post",
		}))
	}

	rec := s.do(t, http.MethodGet, "/api/v1/notifications?page=1&limit=2", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var data struct {
		Notifications []EnrichedNotification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Notifications, 2)
	assert.Equal(t, "Bob", data.Notifications[0].Actor.Name)
	assert.Equal(t, 3.0, env.Meta["totalItems"])
	assert.Equal(t, 2.0, env.Meta["totalPages"])
	assert.Equal(t, true, env.Meta["hasNextPage"])

	target := data.Notifications[0].ID
	readPath := fmt.Sprintf("/api/v1/notifications/%d/read", target)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, readPath, bob, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, readPath, alice, nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", alice, nil)
	var count struct {
		Count int64 `json:"count"`
	}
	decodeData(t, rec, &count)
	assert.Equal(t, int64(2), count.Count)

	deletePath := fmt.Sprintf("/api/v1/notifications/%d", target)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, deletePath, bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, deletePath, alice, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/notifications/read-all", alice, nil).Code)
	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", alice, nil)
	decodeData(t, rec, &count)
	assert.Equal(t, int64(0), count.Count)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/grouped", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		Notifications map[string][]EnrichedNotification `json:"notifications"`
	}
	decodeData(t, rec, &grouped)
	assert.Len(t, grouped.Notifications["today"], 2)

	rec = s.do(t, http.MethodDelete, "/api/v1/notifications", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.notifications.All())
}

// =============================================================================
// Error mapping
// =============================================================================

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.Error{Kind: services.KindNotFound, Message: "user not found"}, http.StatusNotFound},
		{&services.Error{Kind: services.KindInvalidOperation, Message: "x"}, http.StatusBadRequest},
		{&services.Error{Kind: services.KindConflict, Message: "x"}, http.StatusConflict},
		{&services.Error{Kind: services.KindUnauthorized, Message: "x"}, http.StatusForbidden},
		{&services.Error{Kind: services.KindStorage, Message: "x", Err: errors.New("io")}, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", repositories.ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var he *echo.HTTPError
		require.True(t, errors.As(toHTTPError(tt.err), &he))
		assert.Equal(t, tt.want, he.Code, tt.err.Error())
	}
}
