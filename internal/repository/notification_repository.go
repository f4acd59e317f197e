package repository

import (
	"gorm.io/gorm/clause"

	"devchat/internal/models"
	"devchat/internal/storage"
)

type NotificationRepository interface {
	// Create 寫入一筆通知，(user, message) 已存在時靜默跳過（冪等）
	Create(notification *models.Notification) error
	FindUnreadByUser(userID uint) ([]models.Notification, error)
	CountUnreadByUser(userID uint) (int64, error)
	MarkRead(userID uint, ids []uint) error
	MarkAllRead(userID uint) error
	MarkRoomRead(userID, roomID uint) error
}

type notificationRepository struct {
	db *storage.PostgresDB
}

func NewNotificationRepository(db *storage.PostgresDB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	// 唯一索引 (user_id, message_id) 搭配 ON CONFLICT DO NOTHING，
	// 同一筆訊息重複觸發通知不會產生第二列
	return r.db.Omit("Room", "Message").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "message_id"}},
			DoNothing: true,
		}).
		Create(notification).Error
}

func (r *notificationRepository) FindUnreadByUser(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Preload("Room").Preload("Message").Preload("Message.User").
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnreadByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(userID uint, ids []uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkRoomRead(userID, roomID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND room_id = ? AND is_read = ?", userID, roomID, false).
		Update("is_read", true).Error
}
