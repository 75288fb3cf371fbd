package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/schema"
)

type contextKey int

const tabKey contextKey = iota

// WithTab annotates the logger with the tab id if present.
func WithTab(ctx context.Context, tabID schema.TabID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithTabLogger attaches the logger and tab marker to the context.
func ContextWithTabLogger(ctx context.Context, log pslog.Logger, tabID schema.TabID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithTab(ctx, tabID)
}
