package repository

import (
	"time"

	"devchat/internal/models"
	"devchat/internal/storage"
)

type MessageRepository interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	SetContent(id uint, content string, editedAt time.Time) error
	SetRead(id uint) error
	// FindRecent 回傳房間最近的訊息（升冪排列），beforeID 為 0 時從最新往回取
	FindRecent(roomID uint, limit int, beforeID uint) ([]models.Message, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Omit("User").Create(message).Error
}

func (r *messageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("User").First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// SetContent 更新訊息內容並標記為已編輯，原始的 Timestamp 不會被動到
func (r *messageRepository) SetContent(id uint, content string, editedAt time.Time) error {
	return r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": editedAt,
		}).Error
}

func (r *messageRepository) SetRead(id uint) error {
	return r.db.Model(&models.Message{}).Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *messageRepository) FindRecent(roomID uint, limit int, beforeID uint) ([]models.Message, error) {
	query := r.db.Preload("User").Where("room_id = ?", roomID)

	if beforeID != 0 {
		var before models.Message
		if err := r.db.First(&before, beforeID).Error; err == nil {
			query = query.Where("timestamp < ?", before.Timestamp)
		}
	}

	var messages []models.Message
	err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// 反轉成由舊到新
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
