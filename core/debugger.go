package core

import (
	"context"

	"pkt.systems/tabcap/schema"
)

// Debugger is the host debugging facility consumed by the service. All
// calls may fail; failures are diagnosed by the caller and never retried.
type Debugger interface {
	// Attach claims the debugging slot for a tab.
	Attach(ctx context.Context, tabID schema.TabID) error
	// EnableNetworkEvents turns on network event delivery for an attached tab.
	EnableNetworkEvents(ctx context.Context, tabID schema.TabID) error
	// Detach releases the debugging slot. Best-effort: the underlying
	// attachment may already be gone.
	Detach(ctx context.Context, tabID schema.TabID) error
}
