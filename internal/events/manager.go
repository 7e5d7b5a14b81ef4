// Package events provides the one-way audit surface of the escrow engine.
// Every state-changing operation emits exactly one event after it commits;
// events are consumed by external observers and never read back.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	ScheduleUpdated  EventType = "SCHEDULE_UPDATED"
	WindowUpdated    EventType = "WINDOW_UPDATED"
	DepositCreated   EventType = "DEPOSIT_CREATED"
	BuyerClaimed     EventType = "BUYER_CLAIMED"
	SellerWithdrawn  EventType = "SELLER_WITHDRAWN"
	SellerTerminated EventType = "SELLER_TERMINATED"
	ExcessRescued    EventType = "EXCESS_RESCUED"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Event represents a single audit record
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Sink receives emitted events. Sinks must not block; slow consumers should
// buffer on their side.
type Sink func(Event)

// Manager handles event emission and logging
type Manager struct {
	log   zerolog.Logger
	mu    sync.RWMutex
	sinks []Sink
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a sink that receives every subsequently emitted event
func (m *Manager) Subscribe(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Emit emits an event
func (m *Manager) Emit(data EventData) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Data:      data,
	}

	// Log event
	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(event.Type)).
		Str("event_id", event.ID).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	m.mu.RLock()
	sinks := m.sinks
	m.mu.RUnlock()

	for _, sink := range sinks {
		sink(event)
	}
}
