package core

import (
	"encoding/json"
	"testing"
)

func TestEvent_Constructors(t *testing.T) {
	s := NewStatusEvent("Created execution plan")
	if s.Type != EventStatus || s.Content != "Created execution plan" || s.IsTerminal() {
		t.Fatalf("status event malformed: %+v", s)
	}

	f := NewFinalEvent("done", nil)
	if f.Type != EventFinal || !f.IsTerminal() || f.Steps == nil {
		t.Fatalf("final event malformed: %+v", f)
	}

	e := NewErrorEvent("boom")
	if e.Type != EventError || !e.IsTerminal() {
		t.Fatalf("error event malformed: %+v", e)
	}
}

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "status",
			ev:   NewStatusEvent("Executed banking tool"),
			want: `{"type":"status","content":"Executed banking tool"}`,
		},
		{
			name: "final with empty steps",
			ev:   Event{Type: EventFinal, Content: "Hello!"},
			want: `{"type":"final","content":"Hello!","steps":[]}`,
		},
		{
			name: "final with steps",
			ev: NewFinalEvent("ok", []StepEntry{
				{Title: "Planning", Content: "P", Kind: StepPlan},
			}),
			want: `{"type":"final","content":"ok","steps":[{"title":"Planning","content":"P","type":"plan"}]}`,
		},
		{
			name: "error",
			ev:   NewErrorEvent("llm down"),
			want: `{"type":"error","content":"llm down"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.ev)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("got %s, want %s", b, tt.want)
			}
		})
	}
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	var ev Event
	raw := `{"type":"final","content":"x","steps":[{"title":"Reflection","content":"a\n\nb","type":"reflection"}]}`
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != EventFinal || len(ev.Steps) != 1 || ev.Steps[0].Kind != StepReflection {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
