package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"devchat/internal/models"
	"devchat/internal/repository"
)

// RoomService 管理房間的建立、查詢和進入權限
type RoomService struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
}

func NewRoomService(roomRepo repository.RoomRepository, userRepo repository.UserRepository) *RoomService {
	return &RoomService{roomRepo: roomRepo, userRepo: userRepo}
}

// UserRooms 是某個用戶能看到的房間清單
type UserRooms struct {
	Global  *models.Room
	Public  []models.Room
	Private []models.Room
}

// GetOrCreateGlobal 回傳全域聊天室，第一次存取時自動建立
// 全站只會有一個 type=global 的房間，slug 固定為 "global"
func (s *RoomService) GetOrCreateGlobal() (*models.Room, error) {
	return s.roomRepo.FindGlobal(&models.Room{
		Name:        "Global Chat",
		Slug:        "global",
		Description: "所有用戶共用的聊天室",
		Type:        models.RoomTypeGlobal,
		IsActive:    true,
	})
}

// CreateRoom 建立一個公開房間，建立者自動成為管理員
// slug 由名稱產生，撞名時在後面加上當下的 unix 時間戳
func (s *RoomService) CreateRoom(name, description, topics string, ownerID uint) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRoomName
	}

	slug := slugify(name)
	if slug == "" {
		return nil, ErrEmptyRoomName
	}

	exists, err := s.roomRepo.SlugExists(slug)
	if err != nil {
		return nil, err
	}
	if exists {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().Unix())
	}

	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		return nil, err
	}

	room := &models.Room{
		Name:        name,
		Slug:        slug,
		Description: description,
		Topics:      topics,
		Type:        models.RoomTypePublic,
		IsActive:    true,
		Moderators:  []models.User{*owner},
	}
	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetOrCreatePrivateRoom 回傳兩個用戶之間的私聊房間，不存在時自動建立
// slug 由兩個用戶 ID 決定，同一對用戶永遠對應同一個房間
func (s *RoomService) GetOrCreatePrivateRoom(userID, otherID uint) (*models.Room, error) {
	if userID == otherID {
		return nil, ErrSameUser
	}

	a, b := userID, otherID
	if a > b {
		a, b = b, a
	}
	slug := fmt.Sprintf("dm-%d-%d", a, b)

	room, err := s.roomRepo.FindBySlug(slug)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	first, err := s.userRepo.FindByID(a)
	if err != nil {
		return nil, err
	}
	second, err := s.userRepo.FindByID(b)
	if err != nil {
		return nil, err
	}

	room = &models.Room{
		Name:         fmt.Sprintf("%s & %s", first.Username, second.Username),
		Slug:         slug,
		Type:         models.RoomTypePrivate,
		IsActive:     true,
		Participants: []models.User{*first, *second},
	}
	if err := s.roomRepo.Create(room); err != nil {
		// 並發請求可能已經先建好了，再查一次
		if existing, ferr := s.roomRepo.FindBySlug(slug); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return room, nil
}

// GetRoomBySlug 依 slug 查詢房間（參與者和管理員會一併載入）
func (s *RoomService) GetRoomBySlug(slug string) (*models.Room, error) {
	return s.roomRepo.FindBySlug(slug)
}

// CanAccess 檢查用戶是否有權進入房間，未登入一律拒絕
func (s *RoomService) CanAccess(userID uint, room *models.Room) bool {
	return room.CanUserAccess(userID)
}

// DeactivateRoom 停用一個房間（軟刪除），只有房間的管理員可以操作
// 停用後的房間無法再被連線、送訊息或列出；全域房間不能被停用
func (s *RoomService) DeactivateRoom(slug string, userID uint) error {
	room, err := s.roomRepo.FindBySlug(slug)
	if err != nil {
		return ErrRoomNotFound
	}
	if !room.IsActive {
		return ErrRoomNotFound
	}
	if room.IsGlobal() || !room.HasModerator(userID) {
		return ErrAccessDenied
	}

	room.IsActive = false
	return s.roomRepo.Update(room)
}

// AddParticipant 把用戶加入房間的參與者名單，人數上限 0 表示不限
func (s *RoomService) AddParticipant(room *models.Room, userID uint) error {
	if room.HasParticipant(userID) {
		return nil
	}

	if room.MaxParticipants > 0 {
		count, err := s.roomRepo.CountParticipants(room.ID)
		if err != nil {
			return err
		}
		if count >= int64(room.MaxParticipants) {
			return ErrRoomFull
		}
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	return s.roomRepo.AddParticipant(room, user)
}

// ListRoomsForUser 回傳用戶能看到的房間：全域房、所有公開房、自己參與的私聊房
func (s *RoomService) ListRoomsForUser(userID uint) (*UserRooms, error) {
	global, err := s.GetOrCreateGlobal()
	if err != nil {
		return nil, err
	}

	public, err := s.roomRepo.FindActiveByType(models.RoomTypePublic)
	if err != nil {
		return nil, err
	}

	private, err := s.roomRepo.FindPrivateByUser(userID)
	if err != nil {
		return nil, err
	}

	return &UserRooms{Global: global, Public: public, Private: private}, nil
}

// slugify 把房間名稱轉成 URL 安全的 slug：
// 轉小寫，連續的非字母數字字元換成單一個連字號
func slugify(name string) string {
	var b strings.Builder
	lastDash := true // 開頭不補連字號

	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}
