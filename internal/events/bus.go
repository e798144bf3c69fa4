package events

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/logger"
)

// EventListener processes events
type EventListener interface {
	HandleEvent(event Event) error
	Priority() int
	ID() string
}

// ListenerFunc adapts a function into an EventListener
type ListenerFunc struct {
	Name   string
	Order  int
	Handle func(event Event) error
}

func (l *ListenerFunc) HandleEvent(event Event) error { return l.Handle(event) }
func (l *ListenerFunc) Priority() int                 { return l.Order }
func (l *ListenerFunc) ID() string                    { return l.Name }

// Bus manages event distribution. Emit is expected to run on the main loop.
type Bus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]EventListener),
	}
}

// Subscribe adds a listener for specific event types
func (b *Bus) Subscribe(listener EventListener, eventTypes ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range eventTypes {
		b.listeners[eventType] = append(b.listeners[eventType], listener)

		// Stable so equal priorities keep subscription order
		sort.SliceStable(b.listeners[eventType], func(i, j int) bool {
			return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
		})

		logger.ForComponent("events").WithFields(logrus.Fields{
			"listener": listener.ID(),
			"event":    eventType,
			"priority": listener.Priority(),
		}).Debug("listener subscribed")
	}
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		b.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
		logger.ForComponent("events").WithFields(logrus.Fields{
			"listener": listenerID,
			"event":    eventType,
		}).Debug("listener unsubscribed")
		return
	}
}

// Emit sends an event to every listener in priority order. A failing or
// panicking listener does not stop the rest; their errors are joined.
func (b *Bus) Emit(event Event) error {
	b.mu.RLock()
	listeners := make([]EventListener, len(b.listeners[event.GetType()]))
	copy(listeners, b.listeners[event.GetType()])
	b.mu.RUnlock()

	var errs []error
	for _, listener := range listeners {
		if event.IsCancelled() {
			logger.ForComponent("events").WithField("event", event.GetType()).Debug("event cancelled, stopping propagation")
			break
		}

		if err := dispatch(listener, event); err != nil {
			logger.ForComponent("events").WithError(err).WithFields(logrus.Fields{
				"listener":  listener.ID(),
				"event":     event.GetType(),
				"player_id": event.GetPlayerID(),
			}).Error("listener failed")
			errs = append(errs, fmt.Errorf("listener %s failed: %w", listener.ID(), err))
		}
	}

	return errors.Join(errs...)
}

func dispatch(listener EventListener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return listener.HandleEvent(event)
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]EventListener)
}
