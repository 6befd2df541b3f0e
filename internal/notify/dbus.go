//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName   = "org.freedesktop.Notifications"
	busPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	busMethod = "org.freedesktop.Notifications."
	appName   = "Folio"
)

type busNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. Without a session bus the returned
// notifier drops every notification.
func New() Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Discard()
	}
	return &busNotifier{obj: conn.Object(busName, busPath)}
}

func (b *busNotifier) Notify(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant("folio"),
		"category":      dbus.MakeVariant("x-folio.section"),
	}
	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
	call := b.obj.Call(busMethod+"Notify", 0,
		appName, n.ReplacesID, n.Icon, n.Title, n.Body, []string{}, hints, n.Timeout)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

func (b *busNotifier) Close(id uint32) error {
	if id == 0 {
		return nil
	}
	return b.obj.Call(busMethod+"CloseNotification", 0, id).Err
}
