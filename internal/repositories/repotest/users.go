// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
)

// Faults lets a test make named operations fail. The hook receives the
// operation name, e.g. "AddFriend", and returns the error to fail with or nil.
type Faults struct {
	mu   sync.Mutex
	hook func(op string) error
}

func (f *Faults) SetFault(hook func(op string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

func (f *Faults) fault(op string) error {
	f.mu.Lock()
	hook := f.hook
	f.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(op)
}

// Users is an in-memory repositories.UserRepository.
type Users struct {
	Faults

	mu    sync.Mutex
	users map[string]*models.User
	calls map[string]int
}

var _ repositories.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: make(map[string]*models.User), calls: make(map[string]int)}
}

// Seed inserts a user named name and returns its id.
func (r *Users) Seed(name string) string {
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@example.com"}
	_ = r.CreateUser(context.Background(), u)
	return u.IDHex()
}

// Calls reports how many times op has been invoked.
func (r *Users) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// Snapshot returns a copy of the stored user, bypassing fault injection.
func (r *Users) Snapshot(id string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	return clone(u)
}

// Mutate edits a stored user directly. Used to build inconsistent states.
func (r *Users) Mutate(id string, fn func(u *models.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		fn(u)
	}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Friends = slices.Clone(u.Friends)
	c.FriendRequests = slices.Clone(u.FriendRequests)
	return &c
}

func (r *Users) begin(op string) error {
	r.mu.Lock()
	r.calls[op]++
	r.mu.Unlock()
	return r.fault(op)
}

func (r *Users) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.begin("CreateUser"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friends == nil {
		user.Friends = []string{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []string{}
	}
	r.users[user.IDHex()] = clone(user)
	return nil
}

func (r *Users) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := r.begin("GetUserByID"); err != nil {
		return nil, err
	}
	if u := r.Snapshot(id); u != nil {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *Users) findBy(match func(u *models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := r.begin("GetUserByEmail"); err != nil {
		return nil, err
	}
	return r.findBy(func(u *models.User) bool { return u.Email == email })
}

func (r *Users) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	if err := r.begin("GetUserByFirebaseUID"); err != nil {
		return nil, err
	}
	return r.findBy(func(u *models.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == firebaseUID })
}

func (r *Users) filter(keep func(u *models.User) bool) []models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		if keep(u) {
			out = append(out, *clone(u))
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r *Users) GetUsers(ctx context.Context) ([]models.User, error) {
	if err := r.begin("GetUsers"); err != nil {
		return nil, err
	}
	return r.filter(func(*models.User) bool { return true }), nil
}

func (r *Users) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if err := r.begin("GetUsersByIDs"); err != nil {
		return nil, err
	}
	return r.filter(func(u *models.User) bool { return slices.Contains(ids, u.IDHex()) }), nil
}

func (r *Users) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	if err := r.begin("SearchUsers"); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	return r.filter(func(u *models.User) bool {
		return strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q)
	}), nil
}

func (r *Users) UpdateProfile(ctx context.Context, user *models.User) error {
	if err := r.begin("UpdateProfile"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.IDHex()]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Name, u.Email, u.Password, u.FirebaseUID = user.Name, user.Email, user.Password, user.FirebaseUID
	u.UpdatedAt = time.Now()
	return nil
}

func (r *Users) DeleteUser(ctx context.Context, id string) error {
	if err := r.begin("DeleteUser"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, id)
	for _, u := range r.users {
		u.Friends = slices.DeleteFunc(u.Friends, func(s string) bool { return s == id })
		u.FriendRequests = slices.DeleteFunc(u.FriendRequests, func(s string) bool { return s == id })
	}
	return nil
}

func (r *Users) AddFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error) {
	if err := r.begin("AddFriendRequest"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[receiverID]
	if !ok {
		return false, nil
	}
	if u.HasFriendRequestFrom(senderID) || u.HasFriend(senderID) {
		return false, nil
	}
	u.FriendRequests = append(u.FriendRequests, senderID)
	return true, nil
}

func (r *Users) RemoveFriendRequest(ctx context.Context, receiverID, senderID string) (bool, error) {
	if err := r.begin("RemoveFriendRequest"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[receiverID]
	if !ok || !u.HasFriendRequestFrom(senderID) {
		return false, nil
	}
	u.FriendRequests = slices.DeleteFunc(u.FriendRequests, func(s string) bool { return s == senderID })
	return true, nil
}

func (r *Users) AddFriend(ctx context.Context, userID, friendID string) error {
	if err := r.begin("AddFriend"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !u.HasFriend(friendID) {
		u.Friends = append(u.Friends, friendID)
	}
	return nil
}

func (r *Users) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if err := r.begin("RemoveFriend"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Friends = slices.DeleteFunc(u.Friends, func(s string) bool { return s == friendID })
	return nil
}

// RunInTransaction has no rollback; it runs fn directly, like a deployment
// without replica set support.
func (r *Users) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
