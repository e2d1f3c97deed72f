package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/hupe1980/agentloop/core"
)

// ContentTypeNDJSON is the media type of an event stream.
const ContentTypeNDJSON = "application/x-ndjson"

type flusher interface {
	Flush()
}

// WriteNDJSON writes each event of seq as one JSON line, flushing after every
// record when w supports it. A write error stops the sequence and is
// returned.
func WriteNDJSON(w io.Writer, seq iter.Seq[core.Event]) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	f, canFlush := w.(flusher)

	var writeErr error
	for ev := range seq {
		if err := enc.Encode(ev); err != nil {
			writeErr = fmt.Errorf("write %s event: %w", ev.Type, err)
			break
		}
		if canFlush {
			f.Flush()
		}
	}
	return writeErr
}
