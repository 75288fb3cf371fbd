package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout renders capture instants as ISO-8601 with millisecond
// precision in UTC, matching the exported artifact consumed by the offline
// filters.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// LogEntry is one captured debugging-protocol event. Immutable once
// appended; entries carry no relationship beyond arrival order.
type LogEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewLogEntry stamps an event payload with the capture instant.
func NewLogEntry(event string, at time.Time, data json.RawMessage) LogEntry {
	return LogEntry{
		Type:      event,
		Timestamp: at.UTC().Format(TimestampLayout),
		Data:      data,
	}
}

// EncodeLog renders entries as the interchange artifact: a pretty-printed
// JSON array with 2-space indentation. A nil slice encodes as an empty array.
func EncodeLog(entries []LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []LogEntry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// DecodeLog parses an exported artifact back into entries.
func DecodeLog(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode network log: %w", err)
	}
	return entries, nil
}

// LogFileName builds the artifact name for a tab captured at the given
// instant. Millisecond resolution makes collisions improbable.
func LogFileName(tab TabID, at time.Time) string {
	return fmt.Sprintf("network_log_tab_%s_%d.json", tab, at.UnixMilli())
}
