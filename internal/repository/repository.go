package repository

import "devchat/internal/storage"

type Repositories struct {
	User         UserRepository
	Room         RoomRepository
	Message      MessageRepository
	Notification NotificationRepository
	Presence     PresenceRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Room:         NewRoomRepository(db),
		Message:      NewMessageRepository(db),
		Notification: NewNotificationRepository(db),
		Presence:     NewPresenceRepository(db),
	}
}
