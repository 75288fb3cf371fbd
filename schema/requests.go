package schema

import (
	"encoding/json"
	"time"
)

// Capture lifecycle.

// StartCaptureRequest asks to begin capturing a tab.
type StartCaptureRequest struct {
	TabID TabID
}

// StartCaptureResponse reports the resulting session. Started is false when
// a session already existed (duplicate start is inert).
type StartCaptureResponse struct {
	Session SessionSnapshot
	Started bool
}

// StopCaptureRequest asks to end capturing a tab. Persist controls whether
// the buffered entries are exported before the session is discarded.
type StopCaptureRequest struct {
	TabID   TabID
	Persist bool
}

// StopCaptureResponse reports the outcome of a stop. Stopped is false when
// no session existed. File and Download are set only when an artifact was
// produced.
type StopCaptureResponse struct {
	Stopped  bool
	Entries  int
	File     string
	Download DownloadID
}

// ToggleCaptureRequest is the single user-facing action for a tab.
type ToggleCaptureRequest struct {
	TabID TabID
}

// ToggleCaptureResponse reports the state after the toggle.
type ToggleCaptureResponse struct {
	State CaptureState
	Title string
	Stop  StopCaptureResponse
}

// RecordEventRequest appends a protocol event to a tab's session.
type RecordEventRequest struct {
	TabID   TabID
	Event   string
	Payload json.RawMessage
}

// RecordEventResponse reports whether the event was kept. Events for tabs
// without a session are dropped, not errors.
type RecordEventResponse struct {
	Recorded bool
}

// DetachedRequest reports a debugger attachment severed by the host, e.g.
// the browser's own devtools claiming the slot.
type DetachedRequest struct {
	TabID  TabID
	Reason string
}

// DetachedResponse reports the resulting cleanup.
type DetachedResponse struct {
	Stop StopCaptureResponse
}

// TabRemovedRequest reports that a tab ceased to exist.
type TabRemovedRequest struct {
	TabID TabID
}

// TabRemovedResponse reports the resulting cleanup.
type TabRemovedResponse struct {
	Stop StopCaptureResponse
}

// Introspection.

// ListSessionsRequest asks for all active capture sessions.
type ListSessionsRequest struct{}

// ListSessionsResponse reports active sessions ordered by start time.
type ListSessionsResponse struct {
	Sessions []SessionSnapshot
}

// SessionSnapshot is a transport-friendly view of a capture session.
type SessionSnapshot struct {
	TabID     TabID
	State     CaptureState
	Title     string
	Entries   int
	StartedAt time.Time
}
