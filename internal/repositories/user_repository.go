package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/friendcircle/backend/internal/models"
)

// UserRepository defines the interface for user data operations.
//
// The social graph is only ever changed through the set primitives below, each of
// which is a single conditional document update. Callers never write back a whole
// user document to change friends or friend requests.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// AddFriendRequest records senderID as a pending request on receiverID unless
	// senderID is already pending or already a friend. It reports whether the
	// request was recorded; ErrNotFound means the receiver does not exist.
	AddFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error)
	// RemoveFriendRequest drops senderID from receiverID's pending requests and
	// reports whether it was present.
	RemoveFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error)
	// AddFriend adds friendID to userID's friends. Idempotent.
	AddFriend(ctx context.Context, userID, friendID string) error
	// RemoveFriend removes friendID from userID's friends. Idempotent.
	RemoveFriend(ctx context.Context, userID, friendID string) error

	// RunInTransaction runs fn inside a multi-document transaction when the
	// deployment supports one, otherwise it runs fn directly.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection   *mongo.Collection
	transactions bool
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// WithTransactions enables multi-document transactions. Requires a replica set.
func (r *MongoUserRepository) WithTransactions(enabled bool) *MongoUserRepository {
	r.transactions = enabled
	return r
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func userObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return objID, nil
}

// CreateUser creates a new user in MongoDB
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	// $addToSet and $pull need real arrays, never null.
	if user.Friends == nil {
		user.Friends = []string{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []string{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return normalize(err)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByID retrieves a user by hex ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := userObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"firebase_uid": firebaseUID})
}

func (r *MongoUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{})
}

// GetUsersByIDs resolves a list of hex ids. Malformed or unknown ids are skipped.
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
}

// SearchUsers searches for users by name or email (case-insensitive)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"email": pattern},
	}})
}

// UpdateProfile persists the account fields of user. The social graph arrays are untouched.
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{
			"name":         user.Name,
			"email":        user.Email,
			"password":     user.Password,
			"firebase_uid": user.FirebaseUID,
			"updated_at":   user.UpdatedAt,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser deletes a user and strips its id from every other user's graph arrays.
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id string) error {
	objID, err := userObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = r.collection.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"friends": id}, bson.M{"friend_requests": id}}},
		bson.M{"$pull": bson.M{"friends": id, "friend_requests": id}},
	)
	return err
}

func (r *MongoUserRepository) AddFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error) {
	objID, err := userObjectID(receiverID)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":             objID,
			"friend_requests": bson.M{"$ne": senderID},
			"friends":         bson.M{"$ne": senderID},
		},
		bson.M{
			"$addToSet": bson.M{"friend_requests": senderID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoUserRepository) RemoveFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error) {
	objID, err := userObjectID(receiverID)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "friend_requests": senderID},
		bson.M{
			"$pull": bson.M{"friend_requests": senderID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoUserRepository) AddFriend(ctx context.Context, userID, friendID string) error {
	return r.updateFriends(ctx, userID, "$addToSet", friendID)
}

func (r *MongoUserRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return r.updateFriends(ctx, userID, "$pull", friendID)
}

func (r *MongoUserRepository) updateFriends(ctx context.Context, userID, operator, friendID string) error {
	objID, err := userObjectID(userID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		operator: bson.M{"friends": friendID},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.transactions {
		return fn(ctx)
	}
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
