package repository

import (
	"errors"

	"gorm.io/gorm"

	"devchat/internal/models"
	"devchat/internal/storage"
)

type RoomRepository interface {
	Create(room *models.Room) error
	Update(room *models.Room) error
	FindByID(id uint) (*models.Room, error)
	FindBySlug(slug string) (*models.Room, error)
	FindGlobal(defaults *models.Room) (*models.Room, error)
	FindActiveByType(roomType models.RoomType) ([]models.Room, error)
	FindPrivateByUser(userID uint) ([]models.Room, error)
	SlugExists(slug string) (bool, error)
	AddParticipant(room *models.Room, user *models.User) error
	CountParticipants(roomID uint) (int64, error)
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) Update(room *models.Room) error {
	// 略過關聯，避免 Save 連帶覆寫參與者和管理員
	return r.db.Omit("Participants", "Moderators").Save(room).Error
}

func (r *roomRepository) FindByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Preload("Participants").Preload("Moderators").First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindBySlug(slug string) (*models.Room, error) {
	var room models.Room
	err := r.db.Preload("Participants").Preload("Moderators").
		Where("slug = ?", slug).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindGlobal 查詢全域聊天室，不存在時用 defaults 建立（懶初始化）
func (r *roomRepository) FindGlobal(defaults *models.Room) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("type = ?", models.RoomTypeGlobal).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.db.Create(defaults).Error; err != nil {
		// 可能有並發請求先建立了全域房間，再查一次
		var again models.Room
		if ferr := r.db.Where("type = ?", models.RoomTypeGlobal).First(&again).Error; ferr == nil {
			return &again, nil
		}
		return nil, err
	}
	return defaults, nil
}

func (r *roomRepository) FindActiveByType(roomType models.RoomType) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Where("type = ? AND is_active = ?", roomType, true).
		Order("created_at DESC").Find(&rooms).Error
	return rooms, err
}

// FindPrivateByUser 查詢用戶參與的所有私聊房間
func (r *roomRepository) FindPrivateByUser(userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.
		Joins("JOIN room_participants ON room_participants.room_id = rooms.id").
		Where("room_participants.user_id = ? AND rooms.type = ? AND rooms.is_active = ?",
			userID, models.RoomTypePrivate, true).
		Preload("Participants").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Room{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *roomRepository) AddParticipant(room *models.Room, user *models.User) error {
	return r.db.Model(room).Association("Participants").Append(user)
}

func (r *roomRepository) CountParticipants(roomID uint) (int64, error) {
	room := models.Room{Model: gorm.Model{ID: roomID}}
	return r.db.Model(&room).Association("Participants").Count(), nil
}
