package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"chat-client/internal/engine"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

// renderer prints what changed in the store since the previous render: new
// notifications, new messages in the active scope and the typing line.
type renderer struct {
	printed  map[models.Scope]int
	lastNote string
	typing   string
}

func newRenderer() *renderer {
	return &renderer{printed: make(map[models.Scope]int)}
}

func (r *renderer) render(w io.Writer, v store.Reader) {
	notes := v.Notifications()
	start := 0
	for i, n := range notes {
		if n.ID == r.lastNote {
			start = i + 1
		}
	}
	writeNotifications(w, notes[start:])
	if len(notes) > 0 {
		r.lastNote = notes[len(notes)-1].ID
	}

	scope := v.ActiveScope()
	if scope.IsZero() {
		return
	}

	switch scope.Mode {
	case models.ModePrivate:
		msgs := v.PrivateMessages(scope.Key)
		for _, m := range msgs[r.cursor(scope, len(msgs)):] {
			fmt.Fprintf(w, "[%s] %s: %s%s\n", formatTime(m.Timestamp), m.From, m.Content, deliveryMark(m))
		}
	default:
		msgs := v.RoomMessages(scope.Key)
		for _, m := range msgs[r.cursor(scope, len(msgs)):] {
			fmt.Fprintf(w, "[%s] %s: %s\n", formatTime(m.Timestamp), m.Username, m.Content)
		}
	}

	typing := strings.Join(v.TypingUsers(scope), ", ")
	if typing != r.typing {
		r.typing = typing
		if typing != "" {
			fmt.Fprintf(w, "  %s typing...\n", typing)
		}
	}
}

// cursor returns the index of the first unprinted message of scope and
// marks the buffer as printed. A shrunk buffer was replaced and is printed
// again from the start.
func (r *renderer) cursor(scope models.Scope, n int) int {
	from := r.printed[scope]
	if from > n {
		from = 0
	}
	r.printed[scope] = n
	return from
}

func deliveryMark(m models.PrivateMessage) string {
	switch {
	case engine.IsProvisional(m.ID):
		return " (sending)"
	case !m.Delivered:
		return " (offline)"
	}
	return ""
}

func formatTime(ts string) string {
	t, err := time.Parse(models.TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04")
}

func writeNotifications(w io.Writer, notes []models.Notification) {
	for _, n := range notes {
		if n.Title != "" {
			fmt.Fprintf(w, "* %s: %s\n", n.Title, n.Message)
			continue
		}
		fmt.Fprintf(w, "* %s\n", n.Message)
	}
}

func writeRooms(w io.Writer, v store.Reader) {
	current := v.CurrentRoom()
	for _, room := range v.Rooms() {
		marker := " "
		if room.Name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-20s %-24s %d online\n", marker, room.Name, room.DisplayName, room.UserCount)
	}
}

func writeOnline(w io.Writer, v store.Reader) {
	users := v.OnlineUsers()
	if len(users) == 0 {
		fmt.Fprintln(w, "Nobody is online")
		return
	}
	fmt.Fprintf(w, "Online (%d): %s\n", len(users), strings.Join(users, ", "))
}
