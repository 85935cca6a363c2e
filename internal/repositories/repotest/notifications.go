package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
)

// Notifications is an in-memory repositories.NotificationRepository.
type Notifications struct {
	Faults

	mu     sync.Mutex
	nextID uint
	items  []models.Notification
}

var _ repositories.NotificationRepository = (*Notifications)(nil)

func NewNotifications() *Notifications {
	return &Notifications{}
}

// All returns every stored notification in insertion order.
func (r *Notifications) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification{}, r.items...)
}

func (r *Notifications) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := r.fault("CreateNotification"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.items = append(r.items, *n)
	return nil
}

func (r *Notifications) forReceiver(receiverID string) []models.Notification {
	out := []models.Notification{}
	for _, n := range r.items {
		if n.ReceiverID == receiverID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Notifications) GetByReceiverID(ctx context.Context, receiverID string, page, limit int) ([]models.Notification, int64, error) {
	if err := r.fault("GetByReceiverID"); err != nil {
		return nil, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.forReceiver(receiverID)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Notification{}, int64(len(all)), nil
	}
	end := min(start+limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *Notifications) GetGrouped(ctx context.Context, receiverID string, now time.Time) (*models.GroupedNotifications, error) {
	if err := r.fault("GetGrouped"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	g := &models.GroupedNotifications{
		Today: []models.Notification{}, Yesterday: []models.Notification{},
		ThisWeek: []models.Notification{}, Older: []models.Notification{},
	}
	for _, n := range r.forReceiver(receiverID) {
		switch {
		case !n.CreatedAt.Before(todayStart):
			g.Today = append(g.Today, n)
		case !n.CreatedAt.Before(yesterdayStart):
			g.Yesterday = append(g.Yesterday, n)
		case !n.CreatedAt.Before(weekStart):
			g.ThisWeek = append(g.ThisWeek, n)
		default:
			g.Older = append(g.Older, n)
		}
	}
	return g, nil
}

func (r *Notifications) GetUnreadCount(ctx context.Context, receiverID string) (int64, error) {
	if err := r.fault("GetUnreadCount"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.ReceiverID == receiverID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *Notifications) MarkAsRead(ctx context.Context, id uint, receiverID string) error {
	if err := r.fault("MarkAsRead"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].ReceiverID == receiverID {
			r.items[i].Read = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *Notifications) MarkAllAsRead(ctx context.Context, receiverID string) (int64, error) {
	if err := r.fault("MarkAllAsRead"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].ReceiverID == receiverID && !r.items[i].Read {
			r.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *Notifications) Delete(ctx context.Context, id uint, receiverID string) error {
	if err := r.fault("Delete"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].ReceiverID == receiverID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *Notifications) DeleteAll(ctx context.Context, receiverID string) (int64, error) {
	if err := r.fault("DeleteAll"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var n int64
	for _, item := range r.items {
		if item.ReceiverID == receiverID {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return n, nil
}
