package models

import (
	"gorm.io/gorm"
)

// Room 表示一個聊天房間
//
// 房間分成三種類型：
// - global: 全站唯一的公共聊天室，第一次存取時自動建立
// - public: 任何登入用戶都能進入的主題聊天室
// - private: 兩人之間的私聊頻道，只有參與者能進入
type Room struct {
	gorm.Model
	Name            string   `gorm:"not null" json:"name"`
	Slug            string   `gorm:"uniqueIndex;not null" json:"slug"` // URL 安全的唯一識別字串
	Description     string   `gorm:"type:text" json:"description"`
	Type            RoomType `gorm:"type:varchar(10);not null;default:'public'" json:"type"`
	Topics          string   `json:"topics"` // 逗號分隔的主題標籤，只對 public 房間有意義
	IsActive        bool     `gorm:"default:true" json:"is_active"`
	MaxParticipants int      `json:"max_participants"`                      // 0 表示不限人數
	Participants    []User   `gorm:"many2many:room_participants" json:"-"` // private 房間的參與者
	Moderators      []User   `gorm:"many2many:room_moderators" json:"-"`   // public 房間的管理員
}

// RoomType 定義房間類型
type RoomType string

const (
	RoomTypeGlobal  RoomType = "global"
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
)

func (r *Room) IsGlobal() bool  { return r.Type == RoomTypeGlobal }
func (r *Room) IsPublic() bool  { return r.Type == RoomTypePublic }
func (r *Room) IsPrivate() bool { return r.Type == RoomTypePrivate }

// HasParticipant 檢查用戶是否在房間的參與者名單中（需要預先載入 Participants）
func (r *Room) HasParticipant(userID uint) bool {
	for _, p := range r.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// HasModerator 檢查用戶是否是房間的管理員（需要預先載入 Moderators）
func (r *Room) HasModerator(userID uint) bool {
	for _, m := range r.Moderators {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// CanUserAccess 檢查用戶是否可以進入這個房間
// global 和 public 房間對所有登入用戶開放，private 房間只有參與者能進入
func (r *Room) CanUserAccess(userID uint) bool {
	if userID == 0 {
		return false
	}

	switch r.Type {
	case RoomTypeGlobal, RoomTypePublic:
		return true
	case RoomTypePrivate:
		return r.HasParticipant(userID)
	}

	return false
}
