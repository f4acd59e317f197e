package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"devchat/internal/models"
)

// Client 代表一個 WebSocket 客戶端連線
//
// 連線只存在於記憶體中，隨底層傳輸一起消亡；
// 事件透過緩衝的發送隊列異步送出，讀寫各由一個 goroutine 負責
type Client struct {
	ID       string // 連線 ID
	UserID   uint   // 用戶 ID
	Username string // 用戶名
	RoomSlug string // 訂閱的房間

	conn *websocket.Conn // WebSocket 連線，測試時可以為 nil
	send chan []byte     // 事件發送隊列
	done chan struct{}   // 連線關閉信號

	releaseOnce sync.Once
}

func newClient(userID uint, username, roomSlug string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		RoomSlug: roomSlug,
		send:     make(chan []byte, 256), // 緩衝大小 256 的發送隊列
		done:     make(chan struct{}),
	}
}

// ConnectionManager 管理所有的 WebSocket 連線
//
// 負責連線的准入檢查、訂閱與在線狀態的登記，以及斷線時的清理；
// 清理走唯一的一條路徑（Release），任何出錯方式最後都會經過它
type ConnectionManager struct {
	hub      *Hub
	rooms    *RoomService
	presence *PresenceTracker
	pipeline *MessagePipeline

	historyLimit int

	mu      sync.RWMutex
	clients map[string]*Client // 連線 ID -> 連線
}

func NewConnectionManager(hub *Hub, rooms *RoomService, presence *PresenceTracker, pipeline *MessagePipeline, historyLimit int) *ConnectionManager {
	m := &ConnectionManager{
		hub:          hub,
		rooms:        rooms,
		presence:     presence,
		pipeline:     pipeline,
		historyLimit: historyLimit,
		clients:      make(map[string]*Client),
	}
	// 廣播時塞不進隊列的連線由這裡接手斷線清理
	hub.onDrop = m.Release
	return m
}

// HandleConnection 處理一條新的 WebSocket 連線，阻塞到連線結束
// 准入檢查不通過時直接關閉連線，不留下任何狀態
func (m *ConnectionManager) HandleConnection(conn *websocket.Conn, userID uint, username, roomSlug string) {
	client, err := m.Accept(userID, username, roomSlug)
	if err != nil {
		log.Printf("connection rejected: room=%s user=%d err=%v", roomSlug, userID, err)
		conn.Close()
		return
	}
	client.conn = conn

	// 無論連線怎麼結束都要走清理路徑
	defer m.Release(client)

	go m.writePump(client)
	m.readPump(client)
}

// Accept 執行連線的准入檢查並登記狀態
//
// 依序檢查：已登入、房間存在且啟用、有進入權限；任何一項不過就拒絕，
// 這時不會有任何狀態被改動。通過後先載入快照並訂閱（保證快照先於
// 即時事件送達），再登記在線狀態
func (m *ConnectionManager) Accept(userID uint, username, roomSlug string) (*Client, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	room, err := m.rooms.GetRoomBySlug(roomSlug)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	if !room.IsActive {
		return nil, ErrRoomNotFound
	}
	if !m.rooms.CanAccess(userID, room) {
		return nil, ErrAccessDenied
	}

	snapshot, err := m.buildSnapshot(room)
	if err != nil {
		return nil, err
	}

	client := newClient(userID, username, roomSlug)
	if err := m.hub.Subscribe(client, snapshot); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	m.presence.MarkOnline(userID, username, room)
	return client, nil
}

// Release 斷線清理：取消訂閱、遞減在線計數、關閉連線
// 正常關閉、讀寫錯誤、廣播塞車都會走到這裡，重複呼叫只會執行一次
func (m *ConnectionManager) Release(client *Client) {
	client.releaseOnce.Do(func() {
		m.hub.Unsubscribe(client)

		m.mu.Lock()
		delete(m.clients, client.ID)
		m.mu.Unlock()

		m.presence.MarkOffline(client.UserID, client.Username, client.RoomSlug)

		close(client.done)
		if client.conn != nil {
			client.conn.Close()
		}
	})
}

// Connections 回傳目前管理的連線總數
func (m *ConnectionManager) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// buildSnapshot 組出新連線的快照：最近的歷史訊息加上目前的在線名單
func (m *ConnectionManager) buildSnapshot(room *models.Room) (HistoryEvent, error) {
	messages, _, err := m.pipeline.History(room.Slug, m.historyLimit, 0)
	if err != nil {
		return HistoryEvent{}, err
	}

	history := make([]HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, HistoryMessage{
			MessageID:    msg.ID,
			UserID:       msg.UserID,
			Username:     msg.User.Username,
			Content:      msg.Content,
			IsCode:       msg.IsCode,
			CodeLanguage: msg.CodeLanguage,
			Timestamp:    msg.Timestamp,
			IsEdited:     msg.IsEdited,
			EditedAt:     msg.EditedAt,
		})
	}

	return HistoryEvent{
		Type:        EventHistory,
		Messages:    history,
		OnlineUsers: m.presence.ListOnline(room.Slug),
	}, nil
}

// readPump 持續讀取客戶端送來的事件直到連線結束
func (m *ConnectionManager) readPump(client *Client) {
	client.conn.SetReadLimit(4096) // 最大訊息 4KB
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		m.routeInbound(client, raw)
	}
}

// routeInbound 依事件種類分派客戶端送來的事件
// 解析失敗或種類不明的事件直接丟棄，只留記錄——不持久化、不廣播
func (m *ConnectionManager) routeInbound(client *Client, raw []byte) {
	var event inboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("inbound event parse error: room=%s user=%d err=%v", client.RoomSlug, client.UserID, err)
		return
	}

	switch event.Type {
	case EventMessage:
		if _, err := m.pipeline.Submit(client.UserID, client.Username, client.RoomSlug,
			event.Content, event.IsCode, event.CodeLanguage); err != nil {
			log.Printf("submit message failed: room=%s user=%d err=%v", client.RoomSlug, client.UserID, err)
		}
	case EventTyping:
		m.presence.SetTyping(client.UserID, client.Username, client.RoomSlug, event.IsTyping)
	case EventRead:
		if err := m.pipeline.MarkRead(event.MessageID, client.UserID, client.Username); err != nil {
			log.Printf("mark read failed: message=%d user=%d err=%v", event.MessageID, client.UserID, err)
		}
	default:
		log.Printf("unknown inbound event type %q dropped: room=%s user=%d", event.Type, client.RoomSlug, client.UserID)
	}
}

// writePump 把發送隊列裡的事件寫到連線上，並負責心跳
func (m *ConnectionManager) writePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case data := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.Release(client)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.Release(client)
				return
			}

		case <-client.done:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
