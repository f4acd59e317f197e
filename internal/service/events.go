package service

import (
	"time"

	"devchat/internal/models"
)

// EventType 標記房間事件的種類
type EventType string

const (
	EventMessage  EventType = "message"
	EventEdit     EventType = "edit"
	EventTyping   EventType = "typing"
	EventRead     EventType = "read"
	EventPresence EventType = "presence"
	EventHistory  EventType = "history"
)

// Event 是可以廣播到房間的事件，Kind 回傳 type 標籤
// 每一種事件各自是一個帶 Type 欄位的結構，序列化後客戶端以 type 分辨
type Event interface {
	Kind() EventType
}

// MessageEvent 新訊息事件
type MessageEvent struct {
	Type         EventType `json:"type"`
	MessageID    uint      `json:"message_id"`
	UserID       uint      `json:"user_id"`
	Username     string    `json:"username"`
	Content      string    `json:"content"`
	IsCode       bool      `json:"is_code"`
	CodeLanguage string    `json:"code_language"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e MessageEvent) Kind() EventType { return EventMessage }

// NewMessageEvent 從一則已寫入的訊息建立廣播事件
func NewMessageEvent(message *models.Message, username string) MessageEvent {
	return MessageEvent{
		Type:         EventMessage,
		MessageID:    message.ID,
		UserID:       message.UserID,
		Username:     username,
		Content:      message.Content,
		IsCode:       message.IsCode,
		CodeLanguage: message.CodeLanguage,
		Timestamp:    message.Timestamp,
	}
}

// EditEvent 訊息被編輯的事件
type EditEvent struct {
	Type      EventType  `json:"type"`
	MessageID uint       `json:"message_id"`
	Content   string     `json:"content"`
	EditedAt  *time.Time `json:"edited_at"`
}

func (e EditEvent) Kind() EventType { return EventEdit }

// TypingEvent 輸入中狀態事件
type TypingEvent struct {
	Type     EventType `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	IsTyping bool      `json:"is_typing"`
}

func (e TypingEvent) Kind() EventType { return EventTyping }

// ReadEvent 訊息已讀事件
type ReadEvent struct {
	Type      EventType `json:"type"`
	MessageID uint      `json:"message_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
}

func (e ReadEvent) Kind() EventType { return EventRead }

// PresenceEvent 用戶上下線事件
type PresenceEvent struct {
	Type      EventType `json:"type"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IsOnline  bool      `json:"is_online"`
	Timestamp time.Time `json:"timestamp"`
}

func (e PresenceEvent) Kind() EventType { return EventPresence }

// HistoryEvent 連線建立後送出的快照：最近的訊息加上目前的在線名單
// 保證在任何即時事件之前送達，客戶端以此為基準接續即時事件
type HistoryEvent struct {
	Type        EventType        `json:"type"`
	Messages    []HistoryMessage `json:"messages"`
	OnlineUsers []OnlineUser     `json:"online_users"`
}

func (e HistoryEvent) Kind() EventType { return EventHistory }

// HistoryMessage 快照中的單筆訊息
type HistoryMessage struct {
	MessageID    uint       `json:"message_id"`
	UserID       uint       `json:"user_id"`
	Username     string     `json:"username"`
	Content      string     `json:"content"`
	IsCode       bool       `json:"is_code"`
	CodeLanguage string     `json:"code_language"`
	Timestamp    time.Time  `json:"timestamp"`
	IsEdited     bool       `json:"is_edited"`
	EditedAt     *time.Time `json:"edited_at"`
}

// OnlineUser 快照中的在線用戶
type OnlineUser struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	LastSeen time.Time `json:"last_seen"`
}

// inboundEvent 是客戶端送上來的事件，以 type 欄位分辨種類
// 無法解析或不認識的事件一律丟棄，不持久化也不廣播
type inboundEvent struct {
	Type         EventType `json:"type"`
	Content      string    `json:"content"`
	IsCode       bool      `json:"is_code"`
	CodeLanguage string    `json:"code_language"`
	IsTyping     bool      `json:"is_typing"`
	MessageID    uint      `json:"message_id"`
}
