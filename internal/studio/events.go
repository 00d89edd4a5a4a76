package studio

import "fmt"

// EventKind says what changed in a Store.
type EventKind int

const (
	OverlaysChanged EventKind = iota + 1
	SelectionChanged
	StreamChanged
	Notified
)

func (k EventKind) String() string {
	switch k {
	case OverlaysChanged:
		return "overlays"
	case SelectionChanged:
		return "selection"
	case StreamChanged:
		return "stream"
	case Notified:
		return "notification"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// NotificationKind classifies user-facing notifications.
type NotificationKind int

const (
	CreateFailed NotificationKind = iota + 1
	UpdateFailed
	DeleteFailed
	ConnectionError
	Created
	Deleted
	ProtocolWarning
)

var notificationText = map[NotificationKind][2]string{
	CreateFailed:    {"Creation Failed", "Could not create overlay"},
	UpdateFailed:    {"Update Failed", "Could not update overlay"},
	DeleteFailed:    {"Deletion Failed", "Could not delete overlay"},
	ConnectionError: {"Connection Error", "Failed to load overlays from server"},
	Created:         {"Overlay Created", "Overlay has been added successfully"},
	Deleted:         {"Overlay Deleted", "Overlay has been removed"},
	ProtocolWarning: {"Protocol Warning", "Browsers cannot directly play RTSP/UDP. Ensure you have a backend transcoder or use HLS (.m3u8)."},
}

func (k NotificationKind) String() string {
	if t, ok := notificationText[k]; ok {
		return t[0]
	}
	return fmt.Sprintf("NotificationKind(%d)", int(k))
}

// Failure reports whether the notification signals a failed operation.
func (k NotificationKind) Failure() bool {
	switch k {
	case CreateFailed, UpdateFailed, DeleteFailed, ConnectionError:
		return true
	}
	return false
}

// Notification is a message for the operator. Failures carry the cause.
type Notification struct {
	Kind        NotificationKind
	Title       string
	Description string
	OverlayID   string
	Err         error
}

func newNotification(kind NotificationKind, id string, err error) Notification {
	t := notificationText[kind]
	return Notification{Kind: kind, Title: t[0], Description: t[1], OverlayID: id, Err: err}
}

// Event is delivered to Store subscribers. Notification is set only for
// Notified events.
type Event struct {
	Kind         EventKind
	Notification *Notification
}
