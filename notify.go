package muffle

import "context"

// NotificationType identifies a cross-instance notification.
type NotificationType string

// Notification types exchanged between running instances.
const (
	NotifyWordsUpdated NotificationType = "WORDS_UPDATED"
	NotifyToggle       NotificationType = "TOGGLE_STATE"
	NotifyRequestState NotificationType = "REQUEST_STATE"
	NotifyProvideState NotificationType = "PROVIDE_STATE"
)

// Notification lets other instances re-synchronize their in-memory word list
// and enabled flag without re-reading storage.
type Notification struct {
	Type    NotificationType
	Sender  string
	Words   []string
	Enabled bool
}

// Broadcaster delivers notifications to every other subscribed instance.
// Delivery is best effort.
type Broadcaster interface {
	Publish(ctx context.Context, n Notification) error
	Subscribe(fn func(Notification)) (cancel func())
}
