package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmitRejectsEmptyContent(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	observer := subscribeObserver(t, s.Hub, 99, "observer", room.Slug)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, content, false, "")
		require.ErrorIs(t, err, ErrEmptyMessage)
	}

	// 沒有持久化，也沒有廣播
	requireNoEvent(t, observer)
	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestSubmitPersistsThenBroadcasts(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	observer := subscribeObserver(t, s.Hub, 99, "observer", room.Slug)

	message, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, "hello gophers", true, "go")
	require.NoError(t, err)
	require.NotZero(t, message.ID)

	event := nextEvent(t, observer)
	require.Equal(t, string(EventMessage), event["type"])
	require.Equal(t, "hello gophers", event["content"])
	require.Equal(t, "alice", event["username"])
	require.Equal(t, true, event["is_code"])
	require.Equal(t, "go", event["code_language"])

	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "hello gophers", messages[0].Content)
}

func TestSubmitAssignsMonotonicTimestamps(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, "m", false, "")
		require.NoError(t, err)
	}

	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 10)

	// 時間戳在房間內嚴格遞增，即使在同一個 tick 內連續送出
	for i := 1; i < len(messages); i++ {
		require.True(t, messages[i].Timestamp.After(messages[i-1].Timestamp),
			"timestamp %d not after %d", i, i-1)
	}
}

func TestSubmitDeniedForNonParticipant(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	room, err := s.Room.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)

	// 權限在送訊息時重新檢查，不是參與者就直接拒絕
	_, err = s.Message.Submit(carol.ID, carol.Username, room.Slug, "let me in", false, "")
	require.ErrorIs(t, err, ErrAccessDenied)

	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestEditPreservesTimestampAndOrdering(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	message, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, "first draft", false, "")
	require.NoError(t, err)
	original := message.Timestamp

	observer := subscribeObserver(t, s.Hub, 99, "observer", room.Slug)

	// 只有作者可以編輯
	_, err = s.Message.Edit(message.ID, bob.ID, "hijacked")
	require.ErrorIs(t, err, ErrNotAuthor)

	_, err = s.Message.Edit(message.ID, alice.ID, "new text")
	require.NoError(t, err)

	event := nextEvent(t, observer)
	require.Equal(t, string(EventEdit), event["type"])
	require.Equal(t, "new text", event["content"])

	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "new text", messages[0].Content)
	require.True(t, messages[0].IsEdited)
	require.NotNil(t, messages[0].EditedAt)
	// 編輯不影響原本的排序時間戳
	require.True(t, messages[0].Timestamp.Equal(original))
}

func TestMarkReadSetsLegacyFlag(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	message, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, "read me", false, "")
	require.NoError(t, err)

	observer := subscribeObserver(t, s.Hub, 99, "observer", room.Slug)

	require.NoError(t, s.Message.MarkRead(message.ID, bob.ID, bob.Username))

	event := nextEvent(t, observer)
	require.Equal(t, string(EventRead), event["type"])
	require.Equal(t, float64(message.ID), event["message_id"])
	require.Equal(t, "bob", event["username"])

	// 遺留語義:整個房間只有一個已讀旗標
	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.True(t, messages[0].IsRead)
}

func TestHistoryPagination(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		_, err := s.Message.Submit(alice.ID, alice.Username, room.Slug, content, false, "")
		require.NoError(t, err)
	}

	// 不帶 before_id 時拿最新的一頁，由舊到新排列
	page, hasMore, err := s.Message.History(room.Slug, 2, 0)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Len(t, page, 2)
	require.Equal(t, "four", page[0].Content)
	require.Equal(t, "five", page[1].Content)

	// 用頁面裡最舊的訊息往前翻
	page, hasMore, err = s.Message.History(room.Slug, 2, page[0].ID)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, "two", page[0].Content)
	require.Equal(t, "three", page[1].Content)

	page, hasMore, err = s.Message.History(room.Slug, 2, page[0].ID)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Len(t, page, 1)
	require.Equal(t, "one", page[0].Content)
}

func TestConcurrentSubmitters(t *testing.T) {
	s := newTestServices(t)
	room, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	observer := subscribeObserver(t, s.Hub, 99, "observer", room.Slug)

	done := make(chan struct{})
	submit := func(userID uint, username string) {
		for i := 0; i < 10; i++ {
			if _, err := s.Message.Submit(userID, username, room.Slug, "m", false, ""); err != nil {
				t.Error(err)
			}
		}
		done <- struct{}{}
	}
	go submit(alice.ID, alice.Username)
	go submit(bob.ID, bob.Username)
	go submit(carol.ID, carol.Username)
	for i := 0; i < 3; i++ {
		<-done
	}

	// 每一則送出的訊息都恰好廣播一次
	seen := make(map[float64]bool)
	for i := 0; i < 30; i++ {
		event := nextEvent(t, observer)
		require.Equal(t, string(EventMessage), event["type"])
		id := event["message_id"].(float64)
		require.False(t, seen[id], "message %v broadcast twice", id)
		seen[id] = true
	}

	// 持久化的時間戳即使在並發下仍然嚴格遞增
	messages, _, err := s.Message.History(room.Slug, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 30)
	for i := 1; i < len(messages); i++ {
		require.True(t, messages[i].Timestamp.After(messages[i-1].Timestamp))
		require.True(t, seen[float64(messages[i].ID)])
	}
}
