package events

//go:generate mockgen -destination=mock/mock_notifier.go -package=mockevents -source=notifier.go

import "time"

// Notifier is told that the roster changed. It carries no payload; observers re-read
// whatever state they display.
type Notifier interface {
	Notify()
}

// NotifierFunc adapts a plain function to Notifier
type NotifierFunc func()

// Notify calls f
func (f NotifierFunc) Notify() {
	f()
}

// Change is one roster change as seen by listeners
type Change struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// Listener processes changes dispatched by the Bus
type Listener interface {
	HandleChange(change Change) error
	Priority() int
	ID() string
}
