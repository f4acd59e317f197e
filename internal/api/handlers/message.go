package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devchat/internal/service"
)

// MessageHandler 處理單則訊息的編輯和已讀
type MessageHandler struct {
	pipeline *service.MessagePipeline
}

// NewMessageHandler 創建一個新的 MessageHandler 實例
func NewMessageHandler(pipeline *service.MessagePipeline) *MessageHandler {
	return &MessageHandler{pipeline: pipeline}
}

// EditMessage 修改訊息內容，只有作者本人可以編輯
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的訊息ID"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUser(c)
	message, err := h.pipeline.Edit(uint(messageID), userID, input.Content)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toMessageResponse(*message))
}

// MarkMessageRead 設置訊息的已讀旗標
func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的訊息ID"})
		return
	}

	userID, username := currentUser(c)
	if err := h.pipeline.MarkRead(uint(messageID), userID, username); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "更新已讀狀態失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已標記為已讀"})
}
