package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/clock"
	"chat-client/internal/models"
)

func roomMsg(id, user, content string) models.RoomMessage {
	return models.RoomMessage{ID: id, Username: user, Content: content, Timestamp: "2024-01-01T00:00:00.000Z"}
}

func TestStore_AppendRoomMessageKeepsCallOrder(t *testing.T) {
	s := New()

	s.AppendRoomMessage("general", roomMsg("m2", "bob", "second"))
	s.AppendRoomMessage("general", roomMsg("m1", "alice", "first"))
	s.AppendRoomMessage("general", roomMsg("m1", "alice", "first"))
	s.AppendRoomMessage("random", roomMsg("r1", "carol", "elsewhere"))

	got := s.RoomMessages("general")
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].ID)
	assert.Equal(t, "m1", got[1].ID)
	assert.Equal(t, "m1", got[2].ID)
	assert.Len(t, s.RoomMessages("random"), 1)
	assert.Empty(t, s.RoomMessages("unknown"))
}

func TestStore_RoomMessagesReturnsCopy(t *testing.T) {
	s := New()
	s.AppendRoomMessage("general", roomMsg("m1", "alice", "hi"))

	got := s.RoomMessages("general")
	got[0].Content = "changed"

	assert.Equal(t, "hi", s.RoomMessages("general")[0].Content)
}

func TestStore_PrivateMessageInvariant(t *testing.T) {
	s := New()

	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "1", From: "alice", To: "bob"}))
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "2", From: "bob", To: "alice"}))

	err := s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "3", From: "alice", To: "carol"})
	require.ErrorIs(t, err, ErrForeignMessage)

	assert.Len(t, s.PrivateMessages("bob"), 2)
}

func TestStore_ReplaceMessageInPlace(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "a", From: "bob", To: "alice"}))
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "temp-1", From: "alice", To: "bob", Content: "yo"}))
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "b", From: "bob", To: "alice"}))

	ok := s.ReplaceMessage("bob", "temp-1", models.Reconciliation{ID: "p1", Delivered: true})
	require.True(t, ok)

	got := s.PrivateMessages("bob")
	require.Len(t, got, 3)
	assert.Equal(t, "p1", got[1].ID)
	assert.True(t, got[1].Delivered)
	assert.Equal(t, "yo", got[1].Content)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[2].ID)
}

func TestStore_ReplaceMessageMissIsNoop(t *testing.T) {
	s := New()
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "a", From: "bob", To: "alice"}))

	assert.False(t, s.ReplaceMessage("bob", "temp-gone", models.Reconciliation{ID: "p1", Delivered: true}))
	assert.False(t, s.ReplaceMessage("nobody", "a", models.Reconciliation{ID: "p1"}))

	got := s.PrivateMessages("bob")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.False(t, got[0].Delivered)
}

func TestStore_SetMessagesIsIdempotent(t *testing.T) {
	s := New()
	history := []models.RoomMessage{roomMsg("1", "a", "x"), roomMsg("2", "b", "y")}

	s.AppendRoomMessage("general", roomMsg("old", "z", "stale"))
	s.SetRoomMessages("general", history)
	s.SetRoomMessages("general", history)
	assert.Equal(t, history, s.RoomMessages("general"))

	s.SetRoomMessages("general", nil)
	assert.Empty(t, s.RoomMessages("general"))

	dropped := s.SetPrivateMessages("bob", []models.PrivateMessage{
		{ID: "1", From: "bob", To: "alice"},
		{ID: "2", From: "carol", To: "alice"},
	})
	assert.Equal(t, 1, dropped)
	assert.Len(t, s.PrivateMessages("bob"), 1)
}

func TestStore_SetActiveKeepsBuffers(t *testing.T) {
	s := New()
	s.AppendRoomMessage("general", roomMsg("1", "a", "x"))
	require.NoError(t, s.AppendPrivateMessage("bob", models.PrivateMessage{ID: "p", From: "bob", To: "alice"}))

	assert.True(t, s.ActiveScope().IsZero())

	s.SetActive(models.ModeRoom, "general")
	assert.Equal(t, models.RoomScope("general"), s.ActiveScope())

	s.SetActive(models.ModePrivate, "bob")
	assert.Equal(t, models.PrivateScope("bob"), s.ActiveScope())
	assert.Equal(t, "general", s.CurrentRoom())
	assert.Len(t, s.RoomMessages("general"), 1)

	s.SetMode(models.ModeRoom)
	assert.Equal(t, models.RoomScope("general"), s.ActiveScope())
	assert.Equal(t, "bob", s.ActiveConversation())
	assert.Len(t, s.PrivateMessages("bob"), 1)
}

func TestStore_Presence(t *testing.T) {
	s := New()

	s.SetOnlineUsers([]string{"a", "b"})
	s.RemoveOnlineUser("a")
	assert.Equal(t, []string{"b"}, s.OnlineUsers())

	s.AddOnlineUser("c")
	s.AddOnlineUser("c")
	assert.Equal(t, []string{"b", "c"}, s.OnlineUsers())
	assert.True(t, s.IsOnline("c"))

	s.RemoveOnlineUser("missing")
	s.SetOnlineUsers(nil)
	assert.Empty(t, s.OnlineUsers())
}

func TestStore_RoomDirectory(t *testing.T) {
	s := New()
	s.SetRooms([]models.Room{
		{Name: "general", DisplayName: "General", UserCount: 3},
		{Name: "random", DisplayName: "Random", UserCount: 1},
	})

	s.UpsertRoom(models.Room{Name: "go", DisplayName: "Gophers"})
	s.UpsertRoom(models.Room{Name: "general", DisplayName: "General Chat", UserCount: 4})

	rooms := s.Rooms()
	require.Len(t, rooms, 3)
	assert.Equal(t, "General Chat", rooms[0].DisplayName)
	assert.Equal(t, "go", rooms[2].Name)

	assert.True(t, s.UpdateUserCount("random", 7))
	assert.False(t, s.UpdateUserCount("nope", 7))

	r, ok := s.Room("random")
	require.True(t, ok)
	assert.Equal(t, 7, r.UserCount)
	assert.Len(t, s.Rooms(), 3)

	s.SetRooms([]models.Room{{Name: "only"}})
	_, ok = s.Room("general")
	assert.False(t, ok)
	assert.Len(t, s.Rooms(), 1)
}

func TestStore_Typing(t *testing.T) {
	s := New()
	room := models.RoomScope("general")

	s.SetTyping(room, "bob", true)
	s.SetTyping(room, "carol", true)
	s.SetTyping(room, "bob", true)
	assert.Equal(t, []string{"bob", "carol"}, s.TypingUsers(room))

	s.SetTyping(room, "bob", false)
	assert.Equal(t, []string{"carol"}, s.TypingUsers(room))
	s.SetTyping(room, "carol", false)
	assert.Empty(t, s.TypingUsers(room))

	peer := models.PrivateScope("bob")
	s.SetTyping(peer, "bob", true)
	assert.Equal(t, []string{"bob"}, s.TypingUsers(peer))
	assert.True(t, s.IsTyping(peer, "bob"))
	s.SetTyping(peer, "bob", false)
	assert.Empty(t, s.TypingUsers(peer))
}

func TestStore_NotificationsEvictOldestFirst(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New(WithClock(c), WithNotificationCapacity(3))

	for i := 1; i <= 5; i++ {
		s.Notify(models.NotificationInfo, "", fmt.Sprintf("n%d", i))
		c.Advance(time.Second)
	}

	got := s.Notifications()
	require.Len(t, got, 3)
	assert.Equal(t, "n3", got[0].Message)
	assert.Equal(t, "n4", got[1].Message)
	assert.Equal(t, "n5", got[2].Message)
	assert.True(t, got[0].CreatedAt.Before(got[2].CreatedAt))
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestStore_ResetDiscardsSession(t *testing.T) {
	s := New(WithNotificationCapacity(2))
	s.SetIdentity(models.User{Username: "alice"})
	s.SetConnected(true)
	s.SetOnlineUsers([]string{"alice"})
	s.SetActive(models.ModePrivate, "bob")
	s.Notify(models.NotificationError, "", "boom")

	s.Reset()

	_, ok := s.Identity()
	assert.False(t, ok)
	assert.False(t, s.Connected())
	assert.Empty(t, s.OnlineUsers())
	assert.Equal(t, models.ModeRoom, s.Mode())
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 2, s.NotificationCapacity())
}
