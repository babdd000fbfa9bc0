package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer writes records under a fixed header row.
type Writer struct {
	w *csv.Writer
}

// NewWriter writes headers to out and returns a Writer for the rows.
func NewWriter(out io.Writer, headers []string) (*Writer, error) {
	w := csv.NewWriter(out)
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("writing csv headers: %w", err)
	}
	return &Writer{w: w}, nil
}

// Write appends one record.
func (w *Writer) Write(record []string) error {
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	return nil
}

// Flush writes any buffered rows and reports the first write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
