package core

import (
	"bytes"
	"encoding/json"
)

// EventType discriminates the records streamed to a caller.
type EventType string

const (
	// EventStatus is a progress notification.
	EventStatus EventType = "status"
	// EventFinal carries the final answer and the step log. Terminal.
	EventFinal EventType = "final"
	// EventError carries a failure description. Terminal.
	EventError EventType = "error"
)

// StepKind categorizes a StepEntry.
type StepKind string

const (
	StepPlan       StepKind = "plan"
	StepReflection StepKind = "reflection"
)

// StepEntry is one element of the step log returned with the final answer.
type StepEntry struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Kind    StepKind `json:"type"`
}

// Event is one record of the outgoing stream.
//
// Exactly one terminal event (final or error) ends every stream.
type Event struct {
	Type    EventType
	Content string
	Steps   []StepEntry
}

// NewStatusEvent creates a progress record.
func NewStatusEvent(content string) Event {
	return Event{Type: EventStatus, Content: content}
}

// NewFinalEvent creates the terminal success record.
func NewFinalEvent(content string, steps []StepEntry) Event {
	return Event{Type: EventFinal, Content: content, Steps: append([]StepEntry{}, steps...)}
}

// NewErrorEvent creates the terminal failure record.
func NewErrorEvent(content string) Event {
	return Event{Type: EventError, Content: content}
}

// IsTerminal reports whether the event ends the stream.
func (e Event) IsTerminal() bool {
	return e.Type == EventFinal || e.Type == EventError
}

type eventJSON struct {
	Type    EventType   `json:"type"`
	Content string      `json:"content"`
	Steps   []StepEntry `json:"steps,omitempty"`
}

// MarshalJSON encodes the event as a wire record. Final records always carry
// a steps array (possibly empty); other records never do.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Type: e.Type, Content: e.Content}
	if e.Type == EventFinal {
		steps := e.Steps
		if steps == nil {
			steps = []StepEntry{}
		}
		return marshalRaw(struct {
			Type    EventType   `json:"type"`
			Content string      `json:"content"`
			Steps   []StepEntry `json:"steps"`
		}{e.Type, e.Content, steps})
	}
	return marshalRaw(out)
}

// marshalRaw encodes v without HTML escaping; answers are Markdown.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a wire record.
func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Event{Type: in.Type, Content: in.Content, Steps: in.Steps}
	return nil
}
