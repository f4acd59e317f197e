package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"devchat/internal/models"
	"devchat/internal/repository"
	"devchat/internal/storage"
)

// newTestServices 建立一組用記憶體 SQLite 支撐、互相隔離的服務實例
func newTestServices(t *testing.T) *Services {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 記憶體資料庫在多條連線下會各開各的，固定成單一連線
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Message{},
		&models.Notification{},
		&models.Presence{},
	))

	repos := repository.NewRepositories(&storage.PostgresDB{DB: db})
	return NewServices(repos, 50)
}

func createUser(t *testing.T, s *Services, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Password: "secret"}
	require.NoError(t, s.User.CreateUser(user))
	return user
}

// subscribeObserver 建立一條沒有底層 socket 的連線並訂閱房間，
// 收到的第一個事件（快照）直接吃掉，方便後續只看即時事件
func subscribeObserver(t *testing.T, hub *Hub, userID uint, username, roomSlug string) *Client {
	t.Helper()

	client := newClient(userID, username, roomSlug)
	require.NoError(t, hub.Subscribe(client, HistoryEvent{Type: EventHistory}))

	snapshot := nextEvent(t, client)
	require.Equal(t, string(EventHistory), snapshot["type"])
	return client
}

// nextEvent 從連線的發送隊列讀出下一個事件
func nextEvent(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()

	select {
	case data := <-c.send:
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// requireNoEvent 確認連線在短時間內沒有收到任何事件
func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.send:
		t.Fatalf("unexpected event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}
