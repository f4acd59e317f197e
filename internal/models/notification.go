package models

import (
	"gorm.io/gorm"
)

// Notification 表示一則未讀訊息的通知
//
// 每個 (user, message) 組合最多只會有一筆，由唯一索引保證；
// 通知只會被標記為已讀，不會被刪除
type Notification struct {
	gorm.Model
	UserID    uint    `gorm:"uniqueIndex:idx_notifications_user_message;not null" json:"user_id"`
	RoomID    uint    `gorm:"index;not null" json:"room_id"`
	MessageID uint    `gorm:"uniqueIndex:idx_notifications_user_message;not null" json:"message_id"`
	IsRead    bool    `gorm:"default:false" json:"is_read"`
	Room      Room    `json:"-"`
	Message   Message `json:"-"`
}
