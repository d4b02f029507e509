// Package events carries pipeline progress notifications to subscribers.
package events

import "time"

// Event types.
const (
	EventRunStarted    = "run.started"
	EventRunFinished   = "run.finished"
	EventItemStarted   = "item.started"
	EventItemCompleted = "item.completed"
	EventItemFailed    = "item.failed"
)

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	ItemID() string // empty for run-level events
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"item_id,omitempty"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) ItemID() string        { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, itemID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		ID:        itemID,
		Timestamp: time.Now(),
	}
}

// RunStarted is published once at the start of a pipeline run.
type RunStarted struct {
	BaseEvent
	RunID    string `json:"run_id"`
	Playlist string `json:"playlist"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID, playlist string) RunStarted {
	return RunStarted{
		BaseEvent: NewBaseEvent(EventRunStarted, ""),
		RunID:     runID,
		Playlist:  playlist,
	}
}

// RunFinished is published once when a run completes, successfully or not.
type RunFinished struct {
	BaseEvent
	RunID      string `json:"run_id"`
	Downloaded int    `json:"downloaded"`
	Failed     int    `json:"failed"`
	Mutations  int    `json:"mutations"`
}

// NewRunFinished creates a RunFinished event.
func NewRunFinished(runID string, downloaded, failed, mutations int) RunFinished {
	return RunFinished{
		BaseEvent:  NewBaseEvent(EventRunFinished, ""),
		RunID:      runID,
		Downloaded: downloaded,
		Failed:     failed,
		Mutations:  mutations,
	}
}

// ItemStarted is published when a worker invocation begins.
type ItemStarted struct {
	BaseEvent
	Title  string `json:"title"`
	Action string `json:"action"`
}

// NewItemStarted creates an ItemStarted event.
func NewItemStarted(itemID, title, action string) ItemStarted {
	return ItemStarted{
		BaseEvent: NewBaseEvent(EventItemStarted, itemID),
		Title:     title,
		Action:    action,
	}
}

// ItemCompleted is published when a worker invocation succeeds.
type ItemCompleted struct {
	BaseEvent
	Title  string `json:"title"`
	Action string `json:"action"`
}

// NewItemCompleted creates an ItemCompleted event.
func NewItemCompleted(itemID, title, action string) ItemCompleted {
	return ItemCompleted{
		BaseEvent: NewBaseEvent(EventItemCompleted, itemID),
		Title:     title,
		Action:    action,
	}
}

// ItemFailed is published when a worker invocation fails.
type ItemFailed struct {
	BaseEvent
	Title  string `json:"title"`
	Action string `json:"action"`
	Error  string `json:"error"`
}

// NewItemFailed creates an ItemFailed event.
func NewItemFailed(itemID, title, action, errMsg string) ItemFailed {
	return ItemFailed{
		BaseEvent: NewBaseEvent(EventItemFailed, itemID),
		Title:     title,
		Action:    action,
		Error:     errMsg,
	}
}
