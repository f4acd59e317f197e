package models

import (
	"time"

	"gorm.io/gorm"
)

// Message 表示一則聊天訊息
//
// Timestamp 由訊息管線在寫入時配發，不採用客戶端送來的時間，
// 以維持房間內訊息的全序（同一時刻的訊息以自增 ID 決定先後）
type Message struct {
	gorm.Model
	RoomID       uint      `gorm:"index;not null" json:"room_id"`
	UserID       uint      `gorm:"not null" json:"user_id"`
	User         User      `json:"-"`
	Content      string    `gorm:"type:text" json:"content"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"`

	// 程式碼片段相關欄位
	IsCode       bool   `json:"is_code"`
	CodeLanguage string `gorm:"type:varchar(50)" json:"code_language"`

	// 訊息狀態
	// IsRead 是遺留欄位：整個房間共用一個已讀旗標，而不是每位讀者各自一份
	IsRead   bool       `json:"is_read"`
	IsEdited bool       `json:"is_edited"`
	EditedAt *time.Time `json:"edited_at"`
}
