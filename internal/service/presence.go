package service

import (
	"log"
	"sort"
	"sync"
	"time"

	"devchat/internal/models"
	"devchat/internal/repository"
)

// presenceKey 以 (用戶, 房間) 為單位追蹤上線狀態
type presenceKey struct {
	userID   uint
	roomSlug string
}

// presenceEntry 記錄同一個用戶在同一個房間目前開著幾條連線。
// 用引用計數而不是布林值，兩個瀏覽器分頁同時在線時，
// 第二條連線的上線和第一條連線的離線都不會對外發事件
type presenceEntry struct {
	count    int
	username string
	roomID   uint
	lastSeen time.Time
}

// PresenceTracker 維護每個 (用戶, 房間) 的在線狀態
//
// 記憶體中的引用計數是即時在線名單的唯一依據；
// 真正的狀態轉換（0→1、1→0）才會落地到 Presence 資料表並對房間廣播
type PresenceTracker struct {
	mu      sync.Mutex
	entries map[presenceKey]*presenceEntry

	hub          *Hub
	presenceRepo repository.PresenceRepository
}

func NewPresenceTracker(hub *Hub, presenceRepo repository.PresenceRepository) *PresenceTracker {
	return &PresenceTracker{
		entries:      make(map[presenceKey]*presenceEntry),
		hub:          hub,
		presenceRepo: presenceRepo,
	}
}

// MarkOnline 增加 (用戶, 房間) 的連線計數
// 只有第一條連線（0→1）會更新資料庫並廣播上線事件，之後的都靜默跳過
func (t *PresenceTracker) MarkOnline(userID uint, username string, room *models.Room) {
	now := time.Now()

	t.mu.Lock()
	key := presenceKey{userID: userID, roomSlug: room.Slug}
	entry, ok := t.entries[key]
	if !ok {
		entry = &presenceEntry{username: username, roomID: room.ID}
		t.entries[key] = entry
	}
	entry.count++
	entry.lastSeen = now
	first := entry.count == 1
	t.mu.Unlock()

	if !first {
		// 同一個用戶的第二條連線（例如另一個分頁），不重複發上線事件
		return
	}

	if err := t.presenceRepo.Upsert(&models.Presence{
		UserID:   userID,
		RoomID:   room.ID,
		IsOnline: true,
		LastSeen: now,
	}); err != nil {
		log.Printf("presence upsert failed: %v", err)
	}

	t.hub.Publish(room.Slug, PresenceEvent{
		Type:      EventPresence,
		UserID:    userID,
		Username:  username,
		IsOnline:  true,
		Timestamp: now,
	})
}

// MarkOffline 減少 (用戶, 房間) 的連線計數
// 計數歸零（最後一條連線斷開）才會更新資料庫並廣播離線事件；
// 計數不會變成負數，重複的離線呼叫是安全的
func (t *PresenceTracker) MarkOffline(userID uint, username, roomSlug string) {
	now := time.Now()

	t.mu.Lock()
	key := presenceKey{userID: userID, roomSlug: roomSlug}
	entry, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	entry.count--
	if entry.count > 0 {
		entry.lastSeen = now
		t.mu.Unlock()
		return
	}
	roomID := entry.roomID
	delete(t.entries, key)
	t.mu.Unlock()

	if err := t.presenceRepo.Upsert(&models.Presence{
		UserID:   userID,
		RoomID:   roomID,
		IsOnline: false,
		LastSeen: now,
	}); err != nil {
		log.Printf("presence upsert failed: %v", err)
	}

	t.hub.Publish(roomSlug, PresenceEvent{
		Type:      EventPresence,
		UserID:    userID,
		Username:  username,
		IsOnline:  false,
		Timestamp: now,
	})
}

// ListOnline 回傳房間內至少有一條活躍連線的用戶
func (t *PresenceTracker) ListOnline(roomSlug string) []OnlineUser {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := make([]OnlineUser, 0)
	for key, entry := range t.entries {
		if key.roomSlug != roomSlug {
			continue
		}
		users = append(users, OnlineUser{
			UserID:   key.userID,
			Username: entry.username,
			LastSeen: entry.lastSeen,
		})
	}

	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// TouchVisit 記錄用戶造訪過這個房間
// 留下的 Presence 紀錄是公共房間通知範圍的依據
func (t *PresenceTracker) TouchVisit(userID, roomID uint) error {
	return t.presenceRepo.Touch(userID, roomID)
}

// SetTyping 廣播輸入中狀態，純粹是即時事件，不留任何狀態
func (t *PresenceTracker) SetTyping(userID uint, username, roomSlug string, isTyping bool) {
	t.hub.Publish(roomSlug, TypingEvent{
		Type:     EventTyping,
		UserID:   userID,
		Username: username,
		IsTyping: isTyping,
	})
}
