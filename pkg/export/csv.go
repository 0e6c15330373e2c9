package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// IncidentRow is one line of a rendered incident log.
type IncidentRow struct {
	Timestamp    time.Time
	StudentName  string
	BehaviorName string
	BehaviorType string
	Notes        string
}

// IncidentLog is the tabular form of an export job's result.
type IncidentLog struct {
	Title string
	Rows  []IncidentRow
}

var incidentHeaders = []string{"Date", "Time", "Student", "Behavior", "Type", "Notes"}

func (r IncidentRow) record() []string {
	return []string{
		r.Timestamp.Format("2006-01-02"),
		r.Timestamp.Format("15:04"),
		r.StudentName,
		r.BehaviorName,
		r.BehaviorType,
		r.Notes,
	}
}

// CSVRenderer renders incident logs into CSV bytes.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces CSV encoded bytes for the incident log.
func (e *CSVRenderer) Render(log IncidentLog) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(incidentHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range log.Rows {
		if err := writer.Write(row.record()); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
