package service

import (
	"devchat/internal/repository"
)

type Services struct {
	User         *UserService
	Room         *RoomService
	Presence     *PresenceTracker
	Message      *MessagePipeline
	Notification *NotificationFanout
	Hub          *Hub
	Connections  *ConnectionManager
}

// NewServices 把聊天核心的元件組裝起來
// 所有共享狀態都由這裡建立並注入，不依賴任何套件層級的全域變數，
// 同一個行程裡可以建出多組互相隔離的實例（測試時會用到）
func NewServices(repos *repository.Repositories, historyLimit int) *Services {
	hub := NewHub()
	userService := NewUserService(repos.User)
	roomService := NewRoomService(repos.Room, repos.User)
	presence := NewPresenceTracker(hub, repos.Presence)
	fanout := NewNotificationFanout(repos.Notification, repos.Presence)
	pipeline := NewMessagePipeline(repos.Message, roomService, hub, fanout)
	connections := NewConnectionManager(hub, roomService, presence, pipeline, historyLimit)

	return &Services{
		User:         userService,
		Room:         roomService,
		Presence:     presence,
		Message:      pipeline,
		Notification: fanout,
		Hub:          hub,
		Connections:  connections,
	}
}
