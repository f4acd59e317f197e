package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"devchat/internal/models"
	"devchat/internal/repository"
)

// MessagePipeline 處理訊息從進入到廣播的完整流程：
// 驗證 → 配發時間戳 → 持久化 → 廣播 → 觸發通知
//
// 廣播一定發生在持久化成功之後，寫不進資料庫的訊息不會被任何人看到
type MessagePipeline struct {
	messageRepo repository.MessageRepository
	rooms       *RoomService
	hub         *Hub
	fanout      *NotificationFanout

	// 每個房間上一次配發的時間戳，保證房間內的時間戳嚴格遞增
	stampMu    sync.Mutex
	lastStamps map[uint]time.Time
}

func NewMessagePipeline(messageRepo repository.MessageRepository, rooms *RoomService, hub *Hub, fanout *NotificationFanout) *MessagePipeline {
	return &MessagePipeline{
		messageRepo: messageRepo,
		rooms:       rooms,
		hub:         hub,
		fanout:      fanout,
		lastStamps:  make(map[uint]time.Time),
	}
}

// nextTimestamp 配發房間內嚴格遞增的時間戳
// 同一瞬間的多筆訊息會被推後一微秒，排序上的平手再由自增 ID 決定
func (p *MessagePipeline) nextTimestamp(roomID uint) time.Time {
	p.stampMu.Lock()
	defer p.stampMu.Unlock()

	now := time.Now()
	if last, ok := p.lastStamps[roomID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	p.lastStamps[roomID] = now
	return now
}

// Submit 接收一則新訊息
//
// 內容去除空白後為空直接拒絕，不持久化也不廣播。
// 房間權限在這裡重新檢查一次，不信任連線建立當下的狀態——
// 長連線存活期間權限可能已經被收回
func (p *MessagePipeline) Submit(userID uint, username, roomSlug, content string, isCode bool, codeLanguage string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	room, err := p.rooms.GetRoomBySlug(roomSlug)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	if !room.IsActive {
		return nil, ErrRoomNotFound
	}
	if !p.rooms.CanAccess(userID, room) {
		return nil, ErrAccessDenied
	}

	message := &models.Message{
		RoomID:       room.ID,
		UserID:       userID,
		Content:      content,
		IsCode:       isCode,
		CodeLanguage: codeLanguage,
		Timestamp:    p.nextTimestamp(room.ID),
	}

	// 先落地再廣播，存不進去就回報錯誤讓客戶端重試
	if err := p.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("儲存訊息失敗: %w", err)
	}

	p.hub.Publish(roomSlug, NewMessageEvent(message, username))

	// 通知由管線顯式觸發，順序明確也方便測試
	if err := p.fanout.OnNewMessage(room, message); err != nil {
		return message, err
	}
	return message, nil
}

// Edit 修改訊息內容，只有作者本人可以編輯
// 原始的 Timestamp 不變，訊息在房間內的排序不會因編輯而移動
func (p *MessagePipeline) Edit(messageID, editorID uint, newContent string) (*models.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, ErrEmptyMessage
	}

	message, err := p.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if message.UserID != editorID {
		return nil, ErrNotAuthor
	}

	room, err := p.rooms.roomRepo.FindByID(message.RoomID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := p.messageRepo.SetContent(messageID, newContent, now); err != nil {
		return nil, err
	}
	message.Content = newContent
	message.IsEdited = true
	message.EditedAt = &now

	p.hub.Publish(room.Slug, EditEvent{
		Type:      EventEdit,
		MessageID: message.ID,
		Content:   newContent,
		EditedAt:  &now,
	})
	return message, nil
}

// MarkRead 設置訊息的已讀旗標並廣播已讀事件
// 這是遺留語義：整個房間只有一個已讀狀態，不區分是誰讀過
func (p *MessagePipeline) MarkRead(messageID, readerID uint, readerName string) error {
	message, err := p.messageRepo.FindByID(messageID)
	if err != nil {
		return err
	}

	room, err := p.rooms.roomRepo.FindByID(message.RoomID)
	if err != nil {
		return err
	}

	if err := p.messageRepo.SetRead(messageID); err != nil {
		return err
	}

	p.hub.Publish(room.Slug, ReadEvent{
		Type:      EventRead,
		MessageID: messageID,
		UserID:    readerID,
		Username:  readerName,
	})
	return nil
}

// History 回傳房間的歷史訊息（由舊到新），以 beforeID 往前翻頁
// 第二個回傳值表示是否還有更舊的訊息
func (p *MessagePipeline) History(roomSlug string, limit int, beforeID uint) ([]models.Message, bool, error) {
	room, err := p.rooms.GetRoomBySlug(roomSlug)
	if err != nil {
		return nil, false, ErrRoomNotFound
	}

	messages, err := p.messageRepo.FindRecent(room.ID, limit, beforeID)
	if err != nil {
		return nil, false, err
	}
	return messages, len(messages) == limit, nil
}
