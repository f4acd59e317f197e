package service

import (
	"github.com/samber/lo"

	"devchat/internal/models"
	"devchat/internal/repository"
)

// NotificationFanout 從新訊息衍生每個用戶的未讀通知
//
// 私聊房間：通知作者以外的所有參與者。
// 公開和全域房間：只通知曾經造訪過房間（留有 Presence 紀錄）的用戶，
// 避免全域房間的每一則訊息都轟炸所有註冊用戶。
// 寫入靠 (user, message) 唯一鍵保證冪等，同一則訊息重複觸發不會多出通知
type NotificationFanout struct {
	notificationRepo repository.NotificationRepository
	presenceRepo     repository.PresenceRepository
}

func NewNotificationFanout(notificationRepo repository.NotificationRepository, presenceRepo repository.PresenceRepository) *NotificationFanout {
	return &NotificationFanout{
		notificationRepo: notificationRepo,
		presenceRepo:     presenceRepo,
	}
}

// OnNewMessage 為一則剛落地的訊息建立通知，作者本人不會收到
func (f *NotificationFanout) OnNewMessage(room *models.Room, message *models.Message) error {
	var userIDs []uint

	if room.IsPrivate() {
		userIDs = lo.FilterMap(room.Participants, func(u models.User, _ int) (uint, bool) {
			return u.ID, u.ID != message.UserID
		})
	} else {
		presences, err := f.presenceRepo.FindByRoom(room.ID)
		if err != nil {
			return err
		}
		userIDs = lo.FilterMap(presences, func(p models.Presence, _ int) (uint, bool) {
			return p.UserID, p.UserID != message.UserID
		})
	}

	for _, userID := range userIDs {
		err := f.notificationRepo.Create(&models.Notification{
			UserID:    userID,
			RoomID:    room.ID,
			MessageID: message.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ListUnread 回傳用戶所有未讀通知（附帶房間和訊息內容）
func (f *NotificationFanout) ListUnread(userID uint) ([]models.Notification, error) {
	return f.notificationRepo.FindUnreadByUser(userID)
}

// CountUnread 回傳用戶的未讀通知數
func (f *NotificationFanout) CountUnread(userID uint) (int64, error) {
	return f.notificationRepo.CountUnreadByUser(userID)
}

// MarkRead 批次標記指定通知為已讀；ids 為空時標記該用戶的全部未讀通知
func (f *NotificationFanout) MarkRead(userID uint, ids []uint) error {
	if len(ids) == 0 {
		return f.notificationRepo.MarkAllRead(userID)
	}
	return f.notificationRepo.MarkRead(userID, ids)
}

// MarkRoomRead 把用戶在某個房間的通知全部標記為已讀（造訪房間時呼叫）
func (f *NotificationFanout) MarkRoomRead(userID, roomID uint) error {
	return f.notificationRepo.MarkRoomRead(userID, roomID)
}
