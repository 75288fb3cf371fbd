package core

import "pkt.systems/tabcap/schema"

// EventSink receives capture lifecycle events from the service. Sinks keep
// user-facing affordances (toggle titles, status views) in line with session
// existence.
type EventSink interface {
	OnCaptureEvent(event schema.CaptureEvent)
}
