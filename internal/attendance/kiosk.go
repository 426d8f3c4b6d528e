// Package attendance runs attendance attempts and tracks the kiosk state
// shown to the person in front of the camera.
package attendance

import (
	"sync"
	"time"
)

// ToastType is the visual style of a toast.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
)

// Toast is a transient notification.
type Toast struct {
	Message string    `json:"message"`
	Type    ToastType `json:"type"`
}

// State is what the kiosk page renders.
type State struct {
	Status       string    `json:"status"`
	Loading      bool      `json:"loading"`
	CanAttend    bool      `json:"can_attend"`
	Toast        *Toast    `json:"toast"`
	LastIdentity string    `json:"last_identity,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Kiosk owns the UI state and the re-entrancy flag that allows exactly one
// attempt in flight.
type Kiosk struct {
	// notifyMu orders deliveries: listeners see snapshots in the order they
	// were taken.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     State
	inFlight  bool
	listeners map[int]func(State)
	nextID    int
}

// NewKiosk returns an idle kiosk ready for an attempt.
func NewKiosk() *Kiosk {
	return &Kiosk{
		state: State{
			Status:    StatusIdle,
			CanAttend: true,
			UpdatedAt: time.Now().UTC(),
		},
		listeners: make(map[int]func(State)),
	}
}

// TryBegin starts an attempt. It returns false, leaving the state untouched,
// when another attempt is in flight.
func (k *Kiosk) TryBegin() bool {
	k.mu.Lock()
	if k.inFlight {
		k.mu.Unlock()
		return false
	}
	k.inFlight = true
	k.state.Loading = true
	k.state.CanAttend = false
	k.state.Status = StatusDetecting
	k.mu.Unlock()

	k.changed()
	return true
}

// Finish ends the attempt with a status line and toast and re-enables the
// button. A non-empty identity becomes LastIdentity.
func (k *Kiosk) Finish(status string, toast *Toast, identity string) {
	k.mu.Lock()
	k.inFlight = false
	k.state.Loading = false
	k.state.CanAttend = true
	k.state.Status = status
	k.state.Toast = toast
	if identity != "" {
		k.state.LastIdentity = identity
	}
	k.mu.Unlock()

	k.changed()
}

// InFlight reports whether an attempt is running.
func (k *Kiosk) InFlight() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.inFlight
}

// DismissToast clears the current toast.
func (k *Kiosk) DismissToast() {
	k.mu.Lock()
	if k.state.Toast == nil {
		k.mu.Unlock()
		return
	}
	k.state.Toast = nil
	k.mu.Unlock()

	k.changed()
}

// Snapshot returns a copy of the current state.
func (k *Kiosk) Snapshot() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.snapshotLocked()
}

func (k *Kiosk) snapshotLocked() State {
	s := k.state
	if s.Toast != nil {
		t := *s.Toast
		s.Toast = &t
	}
	return s
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (k *Kiosk) Subscribe(fn func(State)) func() {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.nextID
	k.nextID++
	k.listeners[id] = fn
	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		delete(k.listeners, id)
	}
}

// changed stamps the state and notifies listeners outside the state lock.
// Listeners must not block on the kiosk.
func (k *Kiosk) changed() {
	k.notifyMu.Lock()
	defer k.notifyMu.Unlock()

	k.mu.Lock()
	k.state.UpdatedAt = time.Now().UTC()
	s := k.snapshotLocked()
	listeners := make([]func(State), 0, len(k.listeners))
	for _, fn := range k.listeners {
		listeners = append(listeners, fn)
	}
	k.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
