// Package export writes the pack current history in CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Sample is one entry of the current history, oldest first.
type Sample struct {
	Index    int     `json:"index"`
	CurrentA float64 `json:"current_a"`
}

// History is the exported document.
type History struct {
	GeneratedAt time.Time `json:"generated_at"`
	Samples     []Sample  `json:"samples"`
}

// NewHistory numbers the values of the history window.
func NewHistory(values []float64, at time.Time) History {
	samples := make([]Sample, len(values))
	for i, v := range values {
		samples[i] = Sample{Index: i, CurrentA: v}
	}
	return History{GeneratedAt: at, Samples: samples}
}

// Write encodes h in the requested format. An empty format means JSON.
func Write(w io.Writer, format string, h History) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, h)
	case FormatCSV:
		return WriteCSV(w, h)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteJSON writes the history to w in JSON format.
func WriteJSON(w io.Writer, h History) error {
	enc := json.NewEncoder(w)
	return enc.Encode(h)
}

// WriteCSV writes one row per sample with an index,current_a header.
func WriteCSV(w io.Writer, h History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "current_a"}); err != nil {
		return err
	}
	for _, s := range h.Samples {
		rec := []string{
			strconv.Itoa(s.Index),
			strconv.FormatFloat(s.CurrentA, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
