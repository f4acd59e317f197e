package service

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub 負責把事件廣播給訂閱房間的所有連線
//
// 每個房間有自己的鎖和訂閱者集合，房間之間可以並行廣播；
// 同一房間內，事件送達所有訂閱者的順序就是 Publish 被呼叫的順序。
// 鎖的取得順序固定為先 h.mu 再 roomChannel.mu
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomChannel // room slug -> 訂閱者集合

	// onDrop 在某個連線的發送隊列塞滿時被呼叫（另開 goroutine），
	// 由 ConnectionManager 接上斷線清理流程
	onDrop func(*Client)
}

type roomChannel struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*roomChannel)}
}

// Subscribe 把連線加入房間，並在加入之前先把快照塞進發送隊列。
// 兩個動作在房間鎖內完成，保證這條連線收到的第一個事件一定是快照，
// 之後才是即時事件（snapshot-then-live）
func (h *Hub) Subscribe(client *Client, snapshot Event) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rc, ok := h.rooms[client.RoomSlug]
	if !ok {
		rc = &roomChannel{clients: make(map[*Client]struct{})}
		h.rooms[client.RoomSlug] = rc
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	client.send <- data
	rc.clients[client] = struct{}{}
	return nil
}

// Unsubscribe 把連線移出房間，重複呼叫是安全的；空房間會被回收
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rc, ok := h.rooms[client.RoomSlug]
	if !ok {
		return
	}

	rc.mu.Lock()
	delete(rc.clients, client)
	if len(rc.clients) == 0 {
		delete(h.rooms, client.RoomSlug)
	}
	rc.mu.Unlock()
}

// Publish 把事件送給房間內的每一條連線
//
// 逐一塞進各連線的發送隊列；某一條連線塞不進去（對方已經卡死）時
// 直接把它移出房間並異步觸發斷線清理，不會卡住或中斷其他連線的遞送。
// 隊列操作都是非阻塞的，房間鎖只會被持有極短的時間
func (h *Hub) Publish(roomSlug string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("event encoding error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	rc, ok := h.rooms[roomSlug]
	if !ok {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	for client := range rc.clients {
		select {
		case client.send <- data:
			// 成功加入發送隊列
		default:
			// 發送隊列已滿，移除這條連線，剩下的清理交給斷線流程
			delete(rc.clients, client)
			if h.onDrop != nil {
				go h.onDrop(client)
			}
		}
	}
}

// Subscribers 回傳房間目前的連線數
func (h *Hub) Subscribers(roomSlug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rc, ok := h.rooms[roomSlug]
	if !ok {
		return 0
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.clients)
}
