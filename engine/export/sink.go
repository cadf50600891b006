// Package export implements the persistence boundary: sinks that serialize
// a pipeline run to CSV files, a NATS subject, or a JSON stream. All file
// and network I/O for results lives here, outside the core.
package export

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/animetrics/animetrics/engine/ingest"
)

// JSONSink streams the whole run result as one JSON document, typically to
// stdout when no output directory or broker is configured.
type JSONSink struct {
	W io.Writer
}

func (s *JSONSink) WriteRun(_ context.Context, res *ingest.RunResult) error {
	enc := json.NewEncoder(s.W)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Cell formatting shared by the tabular sinks: optional fields render as
// empty cells, never as a guessed value.

func cellInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func cellFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func cellStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
