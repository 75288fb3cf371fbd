package core

import (
	"time"

	"pkt.systems/tabcap/schema"
)

// session tracks the in-memory capture state for a single tab. A session
// exists if and only if the tab is being captured.
type session struct {
	TabID     schema.TabID
	StartedAt time.Time
	entries   []schema.LogEntry
}

func newSession(tabID schema.TabID, at time.Time) *session {
	return &session{TabID: tabID, StartedAt: at}
}

// append adds an entry. The buffer is unbounded; it grows until the session
// is flushed or discarded.
func (s *session) append(entry schema.LogEntry) {
	s.entries = append(s.entries, entry)
}

// Snapshot returns a transport-friendly view of the session.
func (s *session) Snapshot() schema.SessionSnapshot {
	return schema.SessionSnapshot{
		TabID:     s.TabID,
		State:     schema.CaptureActive,
		Title:     schema.TitleStop,
		Entries:   len(s.entries),
		StartedAt: s.StartedAt,
	}
}
