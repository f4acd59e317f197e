package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devchat/internal/api/handlers"
	"devchat/internal/middleware"
	"devchat/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room, services.Message, services.Presence, services.Notification)
	messageHandler := handlers.NewMessageHandler(services.Message)
	notificationHandler := handlers.NewNotificationHandler(services.Notification)
	wsHandler := handlers.NewWebSocketHandler(services.Connections)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 聊天室相關
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)   // 獲取房間列表
			rooms.POST("", roomHandler.CreateRoom) // 創建公開房間

			rooms.GET("/:slug", roomHandler.GetRoom)           // 房間資訊（視為一次造訪）
			rooms.DELETE("/:slug", roomHandler.DeactivateRoom) // 停用房間（管理員限定）
			rooms.GET("/:slug/messages", roomHandler.GetMessages)      // 歷史訊息
			rooms.POST("/:slug/messages", roomHandler.PostMessage)     // 送出訊息
			rooms.GET("/:slug/participants", roomHandler.GetParticipants) // 在線用戶

			// WebSocket 連接點
			rooms.GET("/:slug/ws", wsHandler.HandleWebSocket)
		}

		// 私聊房間（兩人之間自動建立）
		authorized.POST("/private/:user_id", roomHandler.CreatePrivateRoom)

		// 單則訊息操作
		authorized.PUT("/messages/:id", messageHandler.EditMessage)
		authorized.POST("/messages/:id/read", messageHandler.MarkMessageRead)

		// 未讀通知
		authorized.GET("/notifications", notificationHandler.ListNotifications)
		authorized.POST("/notifications/read", notificationHandler.MarkNotificationsRead)
	}
}
