package models

import (
	"time"

	"gorm.io/gorm"
)

// Presence 記錄用戶在某個房間的上線狀態
//
// 每個 (user, room) 組合只會有一筆。這筆資料同時是「用戶造訪過這個房間」
// 的持久化標記，公共房間的通知只會發給留有 Presence 紀錄的用戶。
// 即時的在線名單由記憶體中的 PresenceTracker 維護，這裡只是落地的快照。
type Presence struct {
	gorm.Model
	UserID   uint      `gorm:"uniqueIndex:idx_presences_user_room;not null" json:"user_id"`
	RoomID   uint      `gorm:"uniqueIndex:idx_presences_user_room;not null" json:"room_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
	User     User      `json:"-"`
}
