package schema

// TabID identifies a debuggable browser tab (a page target). Unique while
// the tab exists; opaque to this module.
type TabID string

// DownloadID identifies an initiated artifact download.
type DownloadID string

// CaptureState is the per-tab capture state.
type CaptureState string

const (
	// CaptureIdle means the tab is not being captured.
	CaptureIdle CaptureState = "idle"
	// CaptureActive means a session exists and events are being recorded.
	CaptureActive CaptureState = "capturing"
)

// Toggle affordance titles. The title shown for a tab must always reflect
// session existence.
const (
	// TitleStart is shown while the tab is not being captured.
	TitleStart = "Start capturing network traffic"
	// TitleStop is shown while a capture session is active.
	TitleStop = "Stop capturing network traffic"
)

// TitleFor returns the affordance title for a capture state.
func TitleFor(state CaptureState) string {
	if state == CaptureActive {
		return TitleStop
	}
	return TitleStart
}
