// Package convlog keeps a bounded per-persona log of chat history with
// time-based retention and quota-triggered eviction.
package convlog

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownPersona is returned when logging for a persona that cannot be read.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrNoLogs is returned by downloads when there is nothing to export.
	ErrNoLogs = errors.New("no conversation logs")
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelUsage records a switch to a model within a conversation.
type ModelUsage struct {
	ModelID   string `json:"modelId"`
	ModelName string `json:"modelName"`
	Timestamp int64  `json:"timestamp"`
}

// Conversation is the persisted history of one persona. Times are Unix
// milliseconds.
type Conversation struct {
	ID           string       `json:"id"`
	Timestamp    int64        `json:"timestamp"`
	Messages     []Message    `json:"messages"`
	LastUpdated  int64        `json:"lastUpdated"`
	PersonaName  string       `json:"personaName"`
	DisplayOrder int          `json:"displayOrder"`
	ModelUsage   []ModelUsage `json:"modelUsage"`
}

func (c Conversation) clone() Conversation {
	c.Messages = slices.Clone(c.Messages)
	c.ModelUsage = slices.Clone(c.ModelUsage)
	return c
}

// EventType names a log change.
type EventType string

const (
	EventSave   EventType = "save"
	EventClear  EventType = "clear"
	EventUpdate EventType = "update"
)

// Event describes a log change. PersonaID is empty for whole-log events.
type Event struct {
	Type      EventType `json:"type"`
	PersonaID string    `json:"personaId,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// Listener receives log events.
type Listener func(Event)

// PersonaEntry names a persona that has a conversation on record.
type PersonaEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
