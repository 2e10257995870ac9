package store

import (
	"github.com/google/uuid"

	"chat-client/internal/models"
)

// notificationQueue is a fixed-capacity ring; pushing onto a full queue
// evicts the oldest entry.
type notificationQueue struct {
	items []models.Notification
	head  int
	size  int
}

func newNotificationQueue(capacity int) *notificationQueue {
	return &notificationQueue{items: make([]models.Notification, capacity)}
}

func (q *notificationQueue) push(n models.Notification) {
	c := len(q.items)
	if q.size < c {
		q.items[(q.head+q.size)%c] = n
		q.size++
		return
	}
	q.items[q.head] = n
	q.head = (q.head + 1) % c
}

func (q *notificationQueue) list() []models.Notification {
	out := make([]models.Notification, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}
	return out
}

func (q *notificationQueue) clear() {
	clear(q.items)
	q.head = 0
	q.size = 0
}

// Notify enqueues a notification, stamping its id and creation time.
func (s *Store) Notify(typ models.NotificationType, title, message string) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}
	s.notifications.push(n)
	return n
}

// Notifications returns the queue from oldest to newest.
func (s *Store) Notifications() []models.Notification {
	return s.notifications.list()
}

func (s *Store) NotificationCapacity() int {
	return len(s.notifications.items)
}
