package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateGlobalIsStable(t *testing.T) {
	s := newTestServices(t)

	first, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)
	require.Equal(t, "global", first.Slug)
	require.True(t, first.IsGlobal())
	require.True(t, first.IsActive)

	// 第二次呼叫回傳同一個房間
	second, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "global", second.Slug)
}

func TestCreateRoomGeneratesSlugAndModerator(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")

	room, err := s.Room.CreateRoom("Go Lovers!", "talk about go", "go,backend", alice.ID)
	require.NoError(t, err)
	require.Equal(t, "go-lovers", room.Slug)
	require.True(t, room.IsPublic())

	// 建立者自動成為管理員
	loaded, err := s.Room.GetRoomBySlug("go-lovers")
	require.NoError(t, err)
	require.Len(t, loaded.Moderators, 1)
	require.Equal(t, alice.ID, loaded.Moderators[0].ID)
}

func TestCreateRoomSlugCollision(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")

	first, err := s.Room.CreateRoom("Gophers", "", "", alice.ID)
	require.NoError(t, err)

	second, err := s.Room.CreateRoom("Gophers", "", "", alice.ID)
	require.NoError(t, err)

	// 撞名時加上時間戳後綴，兩個 slug 不同
	require.NotEqual(t, first.Slug, second.Slug)
	require.True(t, strings.HasPrefix(second.Slug, "gophers-"))
}

func TestCreateRoomRejectsEmptyName(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")

	_, err := s.Room.CreateRoom("", "", "", alice.ID)
	require.ErrorIs(t, err, ErrEmptyRoomName)

	_, err = s.Room.CreateRoom("   ", "", "", alice.ID)
	require.ErrorIs(t, err, ErrEmptyRoomName)
}

func TestPrivateRoomAccess(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	room, err := s.Room.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, room.IsPrivate())

	loaded, err := s.Room.GetRoomBySlug(room.Slug)
	require.NoError(t, err)

	// 私聊房間只有參與者能進，未登入一律拒絕
	require.True(t, s.Room.CanAccess(alice.ID, loaded))
	require.True(t, s.Room.CanAccess(bob.ID, loaded))
	require.False(t, s.Room.CanAccess(carol.ID, loaded))
	require.False(t, s.Room.CanAccess(0, loaded))

	// 同一對用戶不管順序，永遠拿到同一個房間
	again, err := s.Room.GetOrCreatePrivateRoom(bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, room.ID, again.ID)

	_, err = s.Room.GetOrCreatePrivateRoom(alice.ID, alice.ID)
	require.ErrorIs(t, err, ErrSameUser)
}

func TestPublicRoomsOpenToAnyAuthenticatedUser(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	room, err := s.Room.CreateRoom("Open Space", "", "", alice.ID)
	require.NoError(t, err)

	require.True(t, s.Room.CanAccess(bob.ID, room))
	require.False(t, s.Room.CanAccess(0, room))
}

func TestListRoomsForUser(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	_, err := s.Room.CreateRoom("Gophers", "", "", bob.ID)
	require.NoError(t, err)
	_, err = s.Room.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)

	rooms, err := s.Room.ListRoomsForUser(alice.ID)
	require.NoError(t, err)
	require.Equal(t, "global", rooms.Global.Slug)
	require.Len(t, rooms.Public, 1)
	require.Len(t, rooms.Private, 1)

	// 不相干的用戶看不到別人的私聊房
	rooms, err = s.Room.ListRoomsForUser(carol.ID)
	require.NoError(t, err)
	require.Len(t, rooms.Private, 0)
}

func TestDeactivateRoom(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	room, err := s.Room.CreateRoom("Ephemeral", "", "", alice.ID)
	require.NoError(t, err)

	// 只有管理員可以停用
	require.ErrorIs(t, s.Room.DeactivateRoom(room.Slug, bob.ID), ErrAccessDenied)
	require.NoError(t, s.Room.DeactivateRoom(room.Slug, alice.ID))

	// 停用後的房間拒絕連線和新訊息
	_, err = s.Connections.Accept(bob.ID, bob.Username, room.Slug)
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.Message.Submit(alice.ID, alice.Username, room.Slug, "too late", false, "")
	require.ErrorIs(t, err, ErrRoomNotFound)

	// 房間列表也不再出現
	rooms, err := s.Room.ListRoomsForUser(bob.ID)
	require.NoError(t, err)
	require.Empty(t, rooms.Public)

	// 重複停用視同不存在
	require.ErrorIs(t, s.Room.DeactivateRoom(room.Slug, alice.ID), ErrRoomNotFound)

	// 全域房間不能被停用
	global, err := s.Room.GetOrCreateGlobal()
	require.NoError(t, err)
	require.ErrorIs(t, s.Room.DeactivateRoom(global.Slug, alice.ID), ErrAccessDenied)
}

func TestAddParticipantEnforcesCapacity(t *testing.T) {
	s := newTestServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	room, err := s.Room.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)
	room.MaxParticipants = 2

	// 已經在名單裡的用戶重複加入是無害的
	require.NoError(t, s.Room.AddParticipant(room, alice.ID))

	// 滿員後再加人會被拒絕
	require.ErrorIs(t, s.Room.AddParticipant(room, carol.ID), ErrRoomFull)

	room.MaxParticipants = 0 // 不限人數
	require.NoError(t, s.Room.AddParticipant(room, carol.ID))

	fresh, err := s.Room.GetRoomBySlug(room.Slug)
	require.NoError(t, err)
	require.True(t, fresh.HasParticipant(carol.ID))
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Go Lovers", "go-lovers"},
		{"  Hello   World  ", "hello-world"},
		{"C++ & Rust!", "c-rust"},
		{"已經是中文", "已經是中文"},
		{"---", ""},
		{"MiXeD CaSe 42", "mixed-case-42"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, slugify(tc.name), "slugify(%q)", tc.name)
	}
}
