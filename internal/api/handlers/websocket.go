package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"devchat/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	connections *service.ConnectionManager
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(connections *service.ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connections: connections}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 准入檢查（房間存在、有權限）交給 ConnectionManager，
// 檢查不過時連線會被直接關閉，不會有任何事件或狀態產生
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, username := currentUser(c)

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	// 阻塞到連線結束，清理由 ConnectionManager 負責
	h.connections.HandleConnection(conn, userID, username, c.Param("slug"))
}
