package repository

import (
	"time"

	"gorm.io/gorm/clause"

	"devchat/internal/models"
	"devchat/internal/storage"
)

type PresenceRepository interface {
	// Upsert 寫入或更新 (user, room) 的上線狀態
	Upsert(presence *models.Presence) error
	// Touch 確保 (user, room) 的造訪紀錄存在並更新 last_seen，不改變上線狀態
	Touch(userID, roomID uint) error
	FindByRoom(roomID uint) ([]models.Presence, error)
}

type presenceRepository struct {
	db *storage.PostgresDB
}

func NewPresenceRepository(db *storage.PostgresDB) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) Upsert(presence *models.Presence) error {
	return r.db.Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_seen", "updated_at"}),
		}).
		Create(presence).Error
}

func (r *presenceRepository) Touch(userID, roomID uint) error {
	return r.db.Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen", "updated_at"}),
		}).
		Create(&models.Presence{UserID: userID, RoomID: roomID, LastSeen: time.Now()}).Error
}

func (r *presenceRepository) FindByRoom(roomID uint) ([]models.Presence, error) {
	var presences []models.Presence
	err := r.db.Preload("User").Where("room_id = ?", roomID).Find(&presences).Error
	return presences, err
}
