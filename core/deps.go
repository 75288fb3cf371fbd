package core

import (
	"time"

	"pkt.systems/pslog"
)

// ServiceDeps captures dependencies for the capture service. Debugger is
// required; the rest are optional.
type ServiceDeps struct {
	Debugger  Debugger
	Downloads DownloadStore
	EventSink EventSink
	Logger    pslog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}
