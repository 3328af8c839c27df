package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event emitted while loading configuration.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// File is the configuration file the event relates to, if any.
	File string `json:"file,omitempty"`

	// ComponentID is the associated plugin instance, if applicable.
	ComponentID string `json:"component_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeConfigParsed        = "config.parsed"
	EventTypeConfigReloaded      = "config.reloaded"
	EventTypeConfigError         = "config.error"
	EventTypeUnusedParameter     = "config.unused_parameter"
	EventTypeComponentConfigured = "plugin.configured"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher fans events out to subscribers. Synchronous publishers
// deliver in the caller's goroutine; asynchronous ones queue events and
// deliver them in order from a single goroutine.
type EventPublisher struct {
	config      EventsConfig
	queue       chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	mu          sync.RWMutex
	done        chan struct{}
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a publisher. A disabled publisher accepts and
// discards every event.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	ep := &EventPublisher{config: cfg}
	if !cfg.Enabled || !cfg.EnableAsync {
		return ep, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep.queue = make(chan Event, cfg.BufferSize)
	ep.done = make(chan struct{})
	ep.cancel = cancel
	go ep.run(ctx)

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	// Set ID and timestamp if not already set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil
		}
	}
	ep.mu.RUnlock()

	if ep.queue == nil {
		ep.deliver(event)
		return nil
	}

	select {
	case ep.queue <- event:
		return nil
	default:
		return fmt.Errorf("event queue full, dropped %s event", event.Type)
	}
}

// PublishConfigParsed publishes an event for a successfully parsed file.
func (ep *EventPublisher) PublishConfigParsed(file string, blocks int, duration time.Duration) error {
	return ep.Publish(Event{
		Type:    EventTypeConfigParsed,
		Source:  "parser",
		File:    file,
		Message: fmt.Sprintf("Parsed %s (%d top-level blocks)", file, blocks),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"blocks":   blocks,
			"duration": duration.Seconds(),
		},
	})
}

// PublishConfigReloaded publishes a reload outcome.
func (ep *EventPublisher) PublishConfigReloaded(file string, components int) error {
	return ep.Publish(Event{
		Type:    EventTypeConfigReloaded,
		Source:  "watcher",
		File:    file,
		Message: fmt.Sprintf("Reloaded %s with %d components", file, components),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"components": components,
		},
	})
}

// PublishConfigError publishes a configuration error.
func (ep *EventPublisher) PublishConfigError(file, kind, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeConfigError,
		Source:  "config",
		File:    file,
		Message: fmt.Sprintf("Configuration error in %s: %s", file, reason),
		Level:   EventLevelError,
		Data: map[string]interface{}{
			"kind":   kind,
			"reason": reason,
		},
	})
}

// PublishUnusedParameter publishes a warning for a parameter nothing read.
func (ep *EventPublisher) PublishUnusedParameter(file, block, key string) error {
	return ep.Publish(Event{
		Type:    EventTypeUnusedParameter,
		Source:  "catalog",
		File:    file,
		Message: fmt.Sprintf("parameter '%s' in %s is not used", key, block),
		Level:   EventLevelWarning,
		Data: map[string]interface{}{
			"block": block,
			"param": key,
		},
	})
}

// PublishComponentConfigured publishes an event for a configured plugin instance.
func (ep *EventPublisher) PublishComponentConfigured(componentID, kind, typeName string) error {
	return ep.Publish(Event{
		Type:        EventTypeComponentConfigured,
		Source:      "catalog",
		ComponentID: componentID,
		Message:     fmt.Sprintf("Configured %s plugin %s", kind, typeName),
		Level:       EventLevelInfo,
		Data: map[string]interface{}{
			"kind": kind,
			"type": typeName,
		},
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// run delivers queued events until the publisher is shut down, then
// delivers whatever is still queued.
func (ep *EventPublisher) run(ctx context.Context) {
	defer close(ep.done)

	for {
		select {
		case event := <-ep.queue:
			ep.deliver(event)
		case <-ctx.Done():
			for {
				select {
				case event := <-ep.queue:
					ep.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (ep *EventPublisher) deliver(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown stops an asynchronous publisher after delivering queued events.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep.cancel == nil {
		return nil
	}
	ep.cancel()

	select {
	case <-ep.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown: %w", ctx.Err())
	}
}

// WriterSubscriber returns a subscriber that writes each event to w as one
// JSON line. It is safe to share between publishers.
func WriterSubscriber(w io.Writer) EventSubscriber {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(event)
	}
}

// Common event filters.

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByFile creates a filter that only allows events for a specific file.
func FilterByFile(file string) EventFilter {
	return func(event Event) bool {
		return event.File == file
	}
}

// FilterByComponentID creates a filter that only allows events for a specific component.
func FilterByComponentID(componentID string) EventFilter {
	return func(event Event) bool {
		return event.ComponentID == componentID
	}
}
