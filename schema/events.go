package schema

// CaptureEventType describes capture lifecycle changes.
type CaptureEventType string

const (
	// CaptureEventStarted indicates a session was created.
	CaptureEventStarted CaptureEventType = "started"
	// CaptureEventStopped indicates a session was removed.
	CaptureEventStopped CaptureEventType = "stopped"
	// CaptureEventSaved indicates an artifact download was initiated.
	CaptureEventSaved CaptureEventType = "saved"
	// CaptureEventDiscarded indicates buffered entries were dropped unsaved.
	CaptureEventDiscarded CaptureEventType = "discarded"
)

// CaptureEvent notifies sinks of a capture state change. Title carries the
// affordance text for the tab after the change.
type CaptureEvent struct {
	TabID    TabID
	Type     CaptureEventType
	State    CaptureState
	Title    string
	Entries  int
	File     string
	Download DownloadID
}
