package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"devchat/internal/models"
	"devchat/internal/service"
)

// NotificationHandler 處理未讀通知的查詢和已讀標記
type NotificationHandler struct {
	notification *service.NotificationFanout
}

// NewNotificationHandler 創建一個新的 NotificationHandler 實例
func NewNotificationHandler(notification *service.NotificationFanout) *NotificationHandler {
	return &NotificationHandler{notification: notification}
}

// ListNotifications 回傳用戶所有未讀通知
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, _ := currentUser(c)

	notifications, err := h.notification.ListUnread(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢通知失敗"})
		return
	}

	items := lo.Map(notifications, func(n models.Notification, _ int) gin.H {
		preview := n.Message.Content
		if len(preview) > 50 {
			preview = preview[:50] + "..."
		}
		return gin.H{
			"id": n.ID,
			"room": gin.H{
				"id":   n.Room.ID,
				"name": n.Room.Name,
				"slug": n.Room.Slug,
				"type": n.Room.Type,
			},
			"message": gin.H{
				"id":       n.Message.ID,
				"content":  preview,
				"username": n.Message.User.Username,
			},
			"timestamp": n.CreatedAt,
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"count":         len(items),
	})
}

// MarkNotificationsRead 批次標記通知為已讀
// notification_ids 為空時，標記該用戶的全部未讀通知
func (h *NotificationHandler) MarkNotificationsRead(c *gin.Context) {
	var input struct {
		NotificationIDs []uint `json:"notification_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUser(c)
	if err := h.notification.MarkRead(userID, input.NotificationIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新通知失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "通知已標記為已讀"})
}
