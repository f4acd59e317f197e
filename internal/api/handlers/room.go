package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"devchat/internal/models"
	"devchat/internal/service"
)

// RoomHandler 處理與聊天房間相關的請求
type RoomHandler struct {
	roomService  *service.RoomService
	pipeline     *service.MessagePipeline
	presence     *service.PresenceTracker
	notification *service.NotificationFanout
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService, pipeline *service.MessagePipeline,
	presence *service.PresenceTracker, notification *service.NotificationFanout) *RoomHandler {
	return &RoomHandler{
		roomService:  roomService,
		pipeline:     pipeline,
		presence:     presence,
		notification: notification,
	}
}

// currentUser 從上下文取出登入用戶的 ID 和用戶名
func currentUser(c *gin.Context) (uint, string) {
	userID, _ := c.Get("userID")
	username, _ := c.Get("username")
	id, _ := userID.(uint)
	name, _ := username.(string)
	return id, name
}

// statusFromError 把服務層的錯誤轉成對應的 HTTP 狀態碼
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptyRoomName),
		errors.Is(err, service.ErrSameUser):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrNotAuthor):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRoomNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type roomResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Topics      string `json:"topics,omitempty"`
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Slug:        room.Slug,
		Description: room.Description,
		Type:        string(room.Type),
		Topics:      room.Topics,
	}
}

type messageResponse struct {
	ID           uint        `json:"id"`
	UserID       uint        `json:"user_id"`
	Username     string      `json:"username"`
	Content      string      `json:"content"`
	IsCode       bool        `json:"is_code"`
	CodeLanguage string      `json:"code_language"`
	Timestamp    interface{} `json:"timestamp"`
	IsEdited     bool        `json:"is_edited"`
	EditedAt     interface{} `json:"edited_at"`
}

func toMessageResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		Username:     m.User.Username,
		Content:      m.Content,
		IsCode:       m.IsCode,
		CodeLanguage: m.CodeLanguage,
		Timestamp:    m.Timestamp,
		IsEdited:     m.IsEdited,
		EditedAt:     m.EditedAt,
	}
}

// CreateRoom 處理創建公開房間的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Topics      string `json:"topics"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUser(c)
	room, err := h.roomService.CreateRoom(input.Name, input.Description, input.Topics, userID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toRoomResponse(room))
}

// ListRooms 回傳用戶能看到的房間：全域房、公開房和自己的私聊房
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, _ := currentUser(c)

	rooms, err := h.roomService.ListRoomsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢房間列表失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"global_room": toRoomResponse(rooms.Global),
		"public_rooms": lo.Map(rooms.Public, func(r models.Room, _ int) roomResponse {
			return toRoomResponse(&r)
		}),
		"private_rooms": lo.Map(rooms.Private, func(r models.Room, _ int) roomResponse {
			return toRoomResponse(&r)
		}),
	})
}

// GetRoom 處理獲取房間訊息的請求
// 視為一次造訪：留下造訪紀錄，並把這個房間的通知標記為已讀
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID, _ := currentUser(c)

	room, err := h.roomService.GetRoomBySlug(c.Param("slug"))
	if err != nil || !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}
	if !h.roomService.CanAccess(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "沒有進入房間的權限"})
		return
	}

	if err := h.presence.TouchVisit(userID, room.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新造訪紀錄失敗"})
		return
	}
	if err := h.notification.MarkRoomRead(userID, room.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新通知失敗"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponse(room))
}

// GetMessages 回傳房間的歷史訊息，以 before_id 和 limit 翻頁
func (h *RoomHandler) GetMessages(c *gin.Context) {
	userID, _ := currentUser(c)

	room, err := h.roomService.GetRoomBySlug(c.Param("slug"))
	if err != nil || !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}
	if !h.roomService.CanAccess(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "沒有進入房間的權限"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	beforeID, _ := strconv.ParseUint(c.Query("before_id"), 10, 32)

	messages, hasMore, err := h.pipeline.History(room.Slug, limit, uint(beforeID))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "查詢訊息失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": lo.Map(messages, func(m models.Message, _ int) messageResponse {
			return toMessageResponse(m)
		}),
		"has_more": hasMore,
	})
}

// PostMessage 透過 HTTP 送出一則訊息（和 WebSocket 走同一條訊息管線）
func (h *RoomHandler) PostMessage(c *gin.Context) {
	var input struct {
		Content      string `json:"content" binding:"required"`
		IsCode       bool   `json:"is_code"`
		CodeLanguage string `json:"code_language"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, username := currentUser(c)
	message, err := h.pipeline.Submit(userID, username, c.Param("slug"),
		input.Content, input.IsCode, input.CodeLanguage)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	message.User.Username = username
	c.JSON(http.StatusCreated, toMessageResponse(*message))
}

// DeactivateRoom 停用房間（軟刪除），只有房間管理員可以操作
func (h *RoomHandler) DeactivateRoom(c *gin.Context) {
	userID, _ := currentUser(c)

	if err := h.roomService.DeactivateRoom(c.Param("slug"), userID); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "房間已停用"})
}

// GetParticipants 回傳房間目前的在線用戶
func (h *RoomHandler) GetParticipants(c *gin.Context) {
	userID, _ := currentUser(c)

	room, err := h.roomService.GetRoomBySlug(c.Param("slug"))
	if err != nil || !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}
	if !h.roomService.CanAccess(userID, room) {
		c.JSON(http.StatusForbidden, gin.H{"error": "沒有進入房間的權限"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"online_users": h.presence.ListOnline(room.Slug)})
}

// CreatePrivateRoom 回傳和另一個用戶的私聊房間，不存在時自動建立
func (h *RoomHandler) CreatePrivateRoom(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的用戶ID"})
		return
	}

	userID, _ := currentUser(c)
	room, err := h.roomService.GetOrCreatePrivateRoom(userID, uint(otherID))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toRoomResponse(room))
}
