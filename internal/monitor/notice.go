package monitor

import (
	"fmt"
	"io"
)

// Notice is the persistent notification shown while the monitor runs.
type Notice struct {
	Channel     string
	ChannelName string
	Description string
	Title       string
	Text        string
}

// DefaultNotice returns the screen monitoring notice.
func DefaultNotice() Notice {
	return Notice{
		Channel:     "screenStateListenerServiceNotification",
		ChannelName: "Screen State Monitoring",
		Description: "Monitors and records the times when the device's screen is unlocked or turned on, to enhance app functionality.",
		Title:       "Screen State Monitoring Active",
		Text:        "Recording screen unlock and turn on times. Tap for more info or to disable.",
	}
}

// Notifier shows and withdraws the notice.
type Notifier interface {
	Post(n Notice) error
	Withdraw(n Notice) error
}

// WriterNotifier prints the notice to a writer, for terminal hosts.
type WriterNotifier struct {
	W io.Writer
}

func (w WriterNotifier) Post(n Notice) error {
	_, err := fmt.Fprintf(w.W, "[%s] %s\n", n.Title, n.Text)
	return err
}

func (w WriterNotifier) Withdraw(n Notice) error {
	_, err := fmt.Fprintf(w.W, "[%s] stopped\n", n.ChannelName)
	return err
}

type nopNotifier struct{}

func (nopNotifier) Post(Notice) error     { return nil }
func (nopNotifier) Withdraw(Notice) error { return nil }
