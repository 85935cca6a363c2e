package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/friendcircle/backend/internal/models"
)

// NotificationRepository defines the interface for notification operations.
// Every read or mutation beyond Create is scoped to the receiver.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByReceiverID(ctx context.Context, receiverID string, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, receiverID string, now time.Time) (*models.GroupedNotifications, error)
	GetUnreadCount(ctx context.Context, receiverID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint, receiverID string) error
	MarkAllAsRead(ctx context.Context, receiverID string) (int64, error)
	Delete(ctx context.Context, notificationID uint, receiverID string) error
	DeleteAll(ctx context.Context, receiverID string) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *postgresNotificationRepository) GetByReceiverID(ctx context.Context, receiverID string, page, limit int) ([]models.Notification, int64, error) {
	notifications := []models.Notification{}
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("receiver_id = ?", receiverID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	err := db.Where("receiver_id = ?", receiverID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetGrouped(ctx context.Context, receiverID string, now time.Time) (*models.GroupedNotifications, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	db := r.db.WithContext(ctx)
	groups := &models.GroupedNotifications{
		Today:     []models.Notification{},
		Yesterday: []models.Notification{},
		ThisWeek:  []models.Notification{},
		Older:     []models.Notification{},
	}

	if err := db.Where("receiver_id = ? AND created_at >= ?", receiverID, todayStart).
		Order("created_at DESC").Find(&groups.Today).Error; err != nil {
		return nil, err
	}

	if err := db.Where("receiver_id = ? AND created_at >= ? AND created_at < ?", receiverID, yesterdayStart, todayStart).
		Order("created_at DESC").Find(&groups.Yesterday).Error; err != nil {
		return nil, err
	}

	// excludes today and yesterday
	if err := db.Where("receiver_id = ? AND created_at >= ? AND created_at < ?", receiverID, weekStart, yesterdayStart).
		Order("created_at DESC").Find(&groups.ThisWeek).Error; err != nil {
		return nil, err
	}

	if err := db.Where("receiver_id = ? AND created_at < ?", receiverID, weekStart).
		Order("created_at DESC").Limit(50).Find(&groups.Older).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID uint, receiverID string) error {
	var n models.Notification
	db := r.db.WithContext(ctx)
	if err := db.Where("id = ? AND receiver_id = ?", notificationID, receiverID).First(&n).Error; err != nil {
		return normalize(err)
	}
	return db.Model(&n).Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) Delete(ctx context.Context, notificationID uint, receiverID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND receiver_id = ?", notificationID, receiverID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteAll(ctx context.Context, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("receiver_id = ?", receiverID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
