package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

const (
	opSend     = "send"
	opAccept   = "accept"
	opReject   = "reject"
	opUnfriend = "unfriend"
	opHeal     = "heal"
)

// FriendshipService implements the friend request state machine over the
// friends and friend_requests arrays of two user documents.
//
// Every two-document transition is a fixed sequence of idempotent set updates,
// run inside a transaction when the repository supports one and retried as a
// whole on storage failure. A sequence that still fails leaves a pair state that
// the next operation on the pair recognises and completes (see heal).
type FriendshipService struct {
	users    repositories.UserRepository
	notifier *Notifier
	metrics  *observability.Metrics

	maxAttempts   uint
	retryInterval time.Duration
}

func NewFriendshipService(users repositories.UserRepository, notifier *Notifier, metrics *observability.Metrics, maxAttempts int) *FriendshipService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FriendshipService{
		users:         users,
		notifier:      notifier,
		metrics:       metrics,
		maxAttempts:   uint(maxAttempts),
		retryInterval: 50 * time.Millisecond,
	}
}

// WithRetryInterval sets the initial backoff between commit attempts.
func (s *FriendshipService) WithRetryInterval(d time.Duration) *FriendshipService {
	s.retryInterval = d
	return s
}

// SendRequest records a pending request from actorID to targetID.
func (s *FriendshipService) SendRequest(ctx context.Context, actorID, targetID string) error {
	err := s.sendRequest(ctx, actorID, targetID)
	s.record(opSend, err)
	return err
}

func (s *FriendshipService) sendRequest(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return invalidOperation("you cannot send a friend request to yourself")
	}
	actor, target, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	if target.HasFriend(actorID) {
		return conflict("you are already friends")
	}
	if target.HasFriendRequestFrom(actorID) {
		return conflict("friend request already sent")
	}

	added, err := s.users.AddFriendRequest(ctx, targetID, actorID)
	if err != nil {
		return storage("user", err)
	}
	if !added {
		// a concurrent request or accept got there first
		return conflict("friend request already sent")
	}

	emitAfterCommit(ctx, s.notifier, s.metrics, &models.Notification{
		Type:       models.NotificationFriendRequest,
		SenderID:   actorID,
		ReceiverID: targetID,
		TargetID:   actorID,
		TargetType: "user",
		Message:    actor.Name + " sent you a friend request",
	})
	return nil
}

// AcceptRequest makes actorID and requesterID friends, consuming the pending
// request requesterID sent to actorID.
func (s *FriendshipService) AcceptRequest(ctx context.Context, actorID, requesterID string) error {
	err := s.acceptRequest(ctx, actorID, requesterID)
	s.record(opAccept, err)
	return err
}

func (s *FriendshipService) acceptRequest(ctx context.Context, actorID, requesterID string) error {
	if actorID == requesterID {
		return invalidOperation("you cannot accept a friend request from yourself")
	}
	actor, requester, err := s.loadPair(ctx, actorID, requesterID)
	if err != nil {
		return err
	}
	if !actor.HasFriendRequestFrom(requesterID) {
		// an earlier accept may have been completed by the repair in loadPair
		if actor.HasFriend(requesterID) && requester.HasFriend(actorID) {
			return conflict("you are already friends")
		}
		return invalidOperation("no pending friend request from this user")
	}

	claimed, err := s.commit(ctx, func(ctx context.Context) (bool, error) {
		toActor, _, err := s.befriend(ctx, actorID, requesterID)
		return toActor, err
	})
	// Only the caller that consumed the request announces the friendship.
	if claimed {
		s.announceAccept(ctx, actor, requesterID)
	}
	return err
}

// announceAccept tells requesterID that accepter took their request.
func (s *FriendshipService) announceAccept(ctx context.Context, accepter *models.User, requesterID string) {
	emitAfterCommit(ctx, s.notifier, s.metrics, &models.Notification{
		Type:       models.NotificationFriendAccept,
		SenderID:   accepter.IDHex(),
		ReceiverID: requesterID,
		TargetID:   accepter.IDHex(),
		TargetType: "user",
		Message:    accepter.Name + " accepted your friend request",
	})
}

// RejectRequest drops the pending request requesterID sent to actorID.
func (s *FriendshipService) RejectRequest(ctx context.Context, actorID, requesterID string) error {
	err := s.rejectRequest(ctx, actorID, requesterID)
	s.record(opReject, err)
	return err
}

func (s *FriendshipService) rejectRequest(ctx context.Context, actorID, requesterID string) error {
	if actorID == requesterID {
		return invalidOperation("you cannot reject a friend request from yourself")
	}
	actor, _, err := s.loadPair(ctx, actorID, requesterID)
	if err != nil {
		return err
	}
	if !actor.HasFriendRequestFrom(requesterID) {
		return invalidOperation("no pending friend request from this user")
	}

	removed, err := s.users.RemoveFriendRequest(ctx, actorID, requesterID)
	if err != nil {
		return storage("user", err)
	}
	if !removed {
		return invalidOperation("no pending friend request from this user")
	}
	return nil
}

// Unfriend removes the mutual friendship between actorID and friendID.
func (s *FriendshipService) Unfriend(ctx context.Context, actorID, friendID string) error {
	err := s.unfriend(ctx, actorID, friendID)
	s.record(opUnfriend, err)
	return err
}

func (s *FriendshipService) unfriend(ctx context.Context, actorID, friendID string) error {
	if actorID == friendID {
		return invalidOperation("you cannot unfriend yourself")
	}
	actor, friend, err := s.loadPair(ctx, actorID, friendID)
	if err != nil {
		return err
	}
	if !actor.HasFriend(friendID) || !friend.HasFriend(actorID) {
		return invalidOperation("you are not friends with this user")
	}

	_, err = s.commit(ctx, func(ctx context.Context) (bool, error) {
		return true, s.separate(ctx, actorID, friendID)
	})
	return err
}

// Status describes the relation between viewerID and otherID as seen by viewerID.
func (s *FriendshipService) Status(ctx context.Context, viewerID, otherID string) (*models.FriendshipView, error) {
	view := &models.FriendshipView{UserID: otherID, Status: models.FriendshipNone}
	if viewerID == otherID {
		return view, nil
	}
	viewer, other, err := s.loadPair(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	switch {
	case viewer.HasFriend(otherID) && other.HasFriend(viewerID):
		view.Status = models.FriendshipFriends
	case other.HasFriendRequestFrom(viewerID):
		view.Status = models.FriendshipRequested
	case viewer.HasFriendRequestFrom(otherID):
		view.Status = models.FriendshipIncoming
	}
	return view, nil
}

// GetFriends resolves the friends of userID to user records.
func (s *FriendshipService) GetFriends(ctx context.Context, userID string) ([]models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storage("user", err)
	}
	friends, err := s.users.GetUsersByIDs(ctx, user.Friends)
	if err != nil {
		return nil, storage("friends", err)
	}
	return friends, nil
}

// GetFriendRequests resolves the senders of userID's pending requests to user records.
func (s *FriendshipService) GetFriendRequests(ctx context.Context, userID string) ([]models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storage("user", err)
	}
	senders, err := s.users.GetUsersByIDs(ctx, user.FriendRequests)
	if err != nil {
		return nil, storage("friend requests", err)
	}
	return senders, nil
}

// loadPair loads both users, target first so a missing target reports NotFound,
// and repairs the pair before returning it.
func (s *FriendshipService) loadPair(ctx context.Context, actorID, otherID string) (*models.User, *models.User, error) {
	other, err := s.users.GetUserByID(ctx, otherID)
	if err != nil {
		return nil, nil, storage("user", err)
	}
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, nil, storage("user", err)
	}
	return s.heal(ctx, actor, other)
}

// heal completes a transition that an earlier failure left half applied.
//
//	asymmetric friendship, request pending   -> finish the accept
//	asymmetric friendship, no request        -> finish the unfriend
//	mutual friendship, leftover request      -> drop the request
//
// Finishing an accept consumes the request, so the repair announces it.
func (s *FriendshipService) heal(ctx context.Context, a, b *models.User) (*models.User, *models.User, error) {
	if pairStateOf(a, b).consistent() {
		return a, b, nil
	}
	a, b, err := s.settle(ctx, a, b)
	if err != nil {
		return nil, nil, err
	}
	state := pairStateOf(a, b)
	if state.consistent() {
		return a, b, nil
	}
	aID, bID := a.IDHex(), b.IDHex()
	aHasB, bHasA, pending := state.aHasB, state.bHasA, state.pending

	// whoever consumes the pending request announces the accept
	var accepter *models.User
	var requesterID string
	claim := func(toA, toB bool, err error) (bool, error) {
		switch {
		case toA && accepter == nil:
			accepter, requesterID = a, bID
		case toB && accepter == nil:
			accepter, requesterID = b, aID
		}
		return toA || toB, err
	}

	var repair func(ctx context.Context) (bool, error)
	switch {
	case aHasB != bHasA && pending:
		repair = func(ctx context.Context) (bool, error) { return claim(s.befriend(ctx, aID, bID)) }
	case aHasB != bHasA:
		repair = func(ctx context.Context) (bool, error) { return true, s.separate(ctx, aID, bID) }
	default:
		repair = func(ctx context.Context) (bool, error) { return claim(s.clearRequests(ctx, aID, bID)) }
	}

	logger.Warn("Repairing partially applied friendship transition",
		zap.String("user_id", aID),
		zap.String("other_id", bID),
		zap.Bool("user_has_other", aHasB),
		zap.Bool("other_has_user", bHasA),
		zap.Bool("pending_request", pending),
	)
	_, err = s.commit(ctx, repair)
	if accepter != nil {
		s.announceAccept(ctx, accepter, requesterID)
	}
	if err != nil {
		s.metrics.RecordTransition(opHeal, observability.ResultError)
		return nil, nil, err
	}
	s.metrics.RecordTransition(opHeal, observability.ResultSuccess)

	a, err = s.users.GetUserByID(ctx, aID)
	if err != nil {
		return nil, nil, storage("user", err)
	}
	b, err = s.users.GetUserByID(ctx, bID)
	if err != nil {
		return nil, nil, storage("user", err)
	}
	return a, b, nil
}

// pairState is what heal looks at in a pair of user documents.
type pairState struct {
	aHasB, bHasA, pending bool
}

func pairStateOf(a, b *models.User) pairState {
	aID, bID := a.IDHex(), b.IDHex()
	return pairState{
		aHasB:   a.HasFriend(bID),
		bHasA:   b.HasFriend(aID),
		pending: a.HasFriendRequestFrom(bID) || b.HasFriendRequestFrom(aID),
	}
}

// consistent is false for the half applied states heal repairs.
func (p pairState) consistent() bool {
	if p.aHasB != p.bHasA {
		return false
	}
	return !(p.aHasB && p.pending)
}

const settleReads = 3

// settle re-reads the pair until two consecutive reads agree. The two documents
// are read separately, so a transition still in flight can look half applied.
func (s *FriendshipService) settle(ctx context.Context, a, b *models.User) (*models.User, *models.User, error) {
	for i := 0; i < settleReads; i++ {
		freshA, err := s.users.GetUserByID(ctx, a.IDHex())
		if err != nil {
			return nil, nil, storage("user", err)
		}
		freshB, err := s.users.GetUserByID(ctx, b.IDHex())
		if err != nil {
			return nil, nil, storage("user", err)
		}
		if pairStateOf(freshA, freshB) == pairStateOf(a, b) {
			return freshA, freshB, nil
		}
		a, b = freshA, freshB
	}
	return a, b, nil
}

// befriend adds both friend links then clears the pending requests in either
// direction. It reports which of the two requests it removed.
func (s *FriendshipService) befriend(ctx context.Context, userID, otherID string) (toUser, toOther bool, err error) {
	if err := s.users.AddFriend(ctx, userID, otherID); err != nil {
		return false, false, err
	}
	if err := s.users.AddFriend(ctx, otherID, userID); err != nil {
		return false, false, err
	}
	return s.clearRequests(ctx, userID, otherID)
}

// separate removes both friend links, userID's side first.
func (s *FriendshipService) separate(ctx context.Context, userID, otherID string) error {
	if err := s.users.RemoveFriend(ctx, userID, otherID); err != nil {
		return err
	}
	return s.users.RemoveFriend(ctx, otherID, userID)
}

// clearRequests removes the request addressed to userID, then the one addressed
// to otherID. A removal that succeeded is reported even when the next one fails.
func (s *FriendshipService) clearRequests(ctx context.Context, userID, otherID string) (toUser, toOther bool, err error) {
	toUser, err = s.users.RemoveFriendRequest(ctx, userID, otherID)
	if err != nil {
		return false, false, err
	}
	toOther, err = s.users.RemoveFriendRequest(ctx, otherID, userID)
	return toUser, toOther, err
}

// commit runs seq in a transaction, retrying the whole sequence with
// exponential backoff. The returned flag is true if any attempt reported true,
// including when the sequence finally fails.
func (s *FriendshipService) commit(ctx context.Context, seq func(ctx context.Context) (bool, error)) (bool, error) {
	var claimed bool
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.users.RunInTransaction(ctx, func(ctx context.Context) error {
			ok, err := seq(ctx)
			if ok {
				claimed = true
			}
			return err
		})
		if errors.Is(err, repositories.ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("Friendship write failed, retrying", zap.Error(err), zap.Duration("backoff", next))
		}),
	)
	if err != nil {
		return claimed, storage("friendship", err)
	}
	return claimed, nil
}

func (s *FriendshipService) record(op string, err error) {
	switch {
	case err == nil:
		s.metrics.RecordTransition(op, observability.ResultSuccess)
	case KindOf(err) == KindStorage:
		s.metrics.RecordTransition(op, observability.ResultError)
		logger.Error("Friendship transition failed", zap.String("op", op), zap.Error(err))
	default:
		s.metrics.RecordTransition(op, observability.ResultRejected)
	}
}
