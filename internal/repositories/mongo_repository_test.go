package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/anonto42/friendcircle/backend/internal/models"
)

func updateResponse(matched int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: matched}, bson.E{Key: "nModified", Value: matched})
}

// =============================================================================
// Users
// =============================================================================

func TestMongoUserRepository_GetUserByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Alice"},
			{Key: "friends", Value: bson.A{bob}},
			{Key: "friend_requests", Value: bson.A{}},
		}))

		user, err := repo.GetUserByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "Alice", user.Name)
		assert.True(mt, user.HasFriend(bob))
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		_, err := repo.GetUserByID(context.Background(), alice)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)

		_, err := repo.GetUserByID(context.Background(), "not-an-id")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoUserRepository_CreateUserInitialisesGraph(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Name: "Alice", Email: "alice@example.com"}
		require.NoError(mt, repo.CreateUser(context.Background(), user))
		assert.False(mt, user.ID.IsZero())
		assert.NotNil(mt, user.Friends)
		assert.NotNil(mt, user.FriendRequests)
	})
}

func TestMongoUserRepository_AddFriendRequest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("recorded", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateResponse(1))

		added, err := repo.AddFriendRequest(context.Background(), bob, alice)
		require.NoError(mt, err)
		assert.True(mt, added)
	})

	mt.Run("already pending or friends", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateResponse(0))

		added, err := repo.AddFriendRequest(context.Background(), bob, alice)
		require.NoError(mt, err)
		assert.False(mt, added)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		_, err := repo.AddFriendRequest(context.Background(), bob, alice)
		assert.Error(mt, err)
	})
}

func TestMongoUserRepository_FriendPrimitives(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("remove request reports presence", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateResponse(1), updateResponse(0))

		removed, err := repo.RemoveFriendRequest(context.Background(), bob, alice)
		require.NoError(mt, err)
		assert.True(mt, removed)

		removed, err = repo.RemoveFriendRequest(context.Background(), bob, alice)
		require.NoError(mt, err)
		assert.False(mt, removed)
	})

	mt.Run("add friend on missing user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateResponse(0))

		assert.ErrorIs(mt, repo.AddFriend(context.Background(), alice, bob), ErrNotFound)
	})

	mt.Run("remove friend", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateResponse(1))

		assert.NoError(mt, repo.RemoveFriend(context.Background(), alice, bob))
	})

	mt.Run("transaction disabled runs inline", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		called := false
		err := repo.RunInTransaction(context.Background(), func(ctx context.Context) error {
			called = true
			return nil
		})
		require.NoError(mt, err)
		assert.True(mt, called)
	})
}

// =============================================================================
// Posts
// =============================================================================

func TestMongoPostRepository_ToggleLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	postID := primitive.NewObjectID()

	mt.Run("like", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: postID},
				{Key: "posted_by", Value: alice},
				{Key: "likes", Value: bson.A{bob}},
				{Key: "likes_count", Value: 1},
			}},
		})

		post, liked, err := repo.ToggleLike(context.Background(), postID.Hex(), bob)
		require.NoError(mt, err)
		assert.True(mt, liked)
		assert.Equal(mt, 1, post.LikesCount)
		assert.True(mt, post.LikedBy(bob))
	})

	mt.Run("unlike falls back to pull", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			bson.D{
				{Key: "ok", Value: 1},
				{Key: "value", Value: bson.D{
					{Key: "_id", Value: postID},
					{Key: "posted_by", Value: alice},
					{Key: "likes", Value: bson.A{}},
					{Key: "likes_count", Value: 0},
				}},
			},
		)

		post, liked, err := repo.ToggleLike(context.Background(), postID.Hex(), bob)
		require.NoError(mt, err)
		assert.False(mt, liked)
		assert.Equal(mt, 0, post.LikesCount)
	})

	mt.Run("unlike racing between add and pull retries", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
			bson.D{
				{Key: "ok", Value: 1},
				{Key: "value", Value: bson.D{
					{Key: "_id", Value: postID},
					{Key: "posted_by", Value: alice},
					{Key: "likes", Value: bson.A{bob}},
					{Key: "likes_count", Value: 1},
				}},
			},
		)

		post, liked, err := repo.ToggleLike(context.Background(), postID.Hex(), bob)
		require.NoError(mt, err)
		assert.True(mt, liked)
		assert.Equal(mt, 1, post.LikesCount)
	})

	mt.Run("missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch),
		)

		_, _, err := repo.ToggleLike(context.Background(), postID.Hex(), bob)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoPostRepository_GetFeedWithoutAuthors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)

		posts, err := repo.GetFeed(context.Background(), nil, 0, 20)
		require.NoError(mt, err)
		assert.Empty(mt, posts)
	})
}
