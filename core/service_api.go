package core

import (
	"context"

	"pkt.systems/tabcap/schema"
)

// Service is the transport-agnostic API for managing per-tab capture
// sessions. StartCapture, StopCapture, and ToggleCapture react to the user;
// RecordEvent, HandleDetached, and HandleTabRemoved react to the browser.
type Service interface {
	StartCapture(ctx context.Context, req schema.StartCaptureRequest) (schema.StartCaptureResponse, error)
	StopCapture(ctx context.Context, req schema.StopCaptureRequest) (schema.StopCaptureResponse, error)
	ToggleCapture(ctx context.Context, req schema.ToggleCaptureRequest) (schema.ToggleCaptureResponse, error)
	RecordEvent(ctx context.Context, req schema.RecordEventRequest) (schema.RecordEventResponse, error)
	HandleDetached(ctx context.Context, req schema.DetachedRequest) (schema.DetachedResponse, error)
	HandleTabRemoved(ctx context.Context, req schema.TabRemovedRequest) (schema.TabRemovedResponse, error)
	ListSessions(ctx context.Context, req schema.ListSessionsRequest) (schema.ListSessionsResponse, error)
}
