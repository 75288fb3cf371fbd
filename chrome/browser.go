// Package chrome implements the capture service's debugger port against a
// running Chromium browser's remote debugging endpoint.
package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/core"
	"pkt.systems/tabcap/internal/logx"
	"pkt.systems/tabcap/schema"
)

// Config configures the browser connection.
type Config struct {
	// RemoteURL is the browser's devtools endpoint, e.g.
	// ws://127.0.0.1:9222 or http://127.0.0.1:9222.
	RemoteURL string
}

// Browser maintains the remote debugging connection and per-tab attachments.
// It implements core.Debugger and forwards network events, host-initiated
// detaches, and tab removals to the bound service.
type Browser struct {
	cfg    Config
	logger pslog.Logger

	mu          sync.Mutex
	svc         core.Service
	tabs        map[schema.TabID]*tabConn
	forwardCtx  context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

type tabConn struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowser returns an unconnected Browser.
func NewBrowser(cfg Config, logger pslog.Logger) (*Browser, error) {
	if strings.TrimSpace(cfg.RemoteURL) == "" {
		return nil, errors.New("browser remote url is required")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Browser{
		cfg:    cfg,
		logger: logger,
		tabs:   make(map[schema.TabID]*tabConn),
	}, nil
}

// Bind wires the capture service that receives forwarded events. Events
// arriving before Bind are dropped.
func (b *Browser) Bind(svc core.Service) {
	b.mu.Lock()
	b.svc = svc
	b.mu.Unlock()
}

// Connect establishes the browser-level debugging connection and starts
// watching for destroyed targets. The connection lives until Close or until
// ctx is cancelled.
func (b *Browser) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.browserCtx != nil {
		b.mu.Unlock()
		return errors.New("already connected")
	}
	b.mu.Unlock()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, b.cfg.RemoteURL)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	// Target discovery is on for chromedp-managed browsers; destroyed-target
	// notifications arrive on the browser session.
	chromedp.ListenBrowser(browserCtx, b.onBrowserEvent)
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return fmt.Errorf("connect %s: %w", b.cfg.RemoteURL, err)
	}

	b.mu.Lock()
	b.forwardCtx = pslog.ContextWithLogger(context.WithoutCancel(ctx), b.logger)
	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserStop = browserStop
	b.mu.Unlock()
	b.logger.Info("browser connected", "url", b.cfg.RemoteURL)
	return nil
}

// Close tears down all tab attachments and the browser connection.
func (b *Browser) Close() error {
	b.mu.Lock()
	tabs := b.tabs
	b.tabs = make(map[schema.TabID]*tabConn)
	browserStop := b.browserStop
	allocCancel := b.allocCancel
	b.browserCtx = nil
	b.browserStop = nil
	b.allocCancel = nil
	b.mu.Unlock()

	for _, conn := range tabs {
		conn.cancel()
	}
	if browserStop != nil {
		browserStop()
	}
	if allocCancel != nil {
		allocCancel()
	}
	return nil
}

// Attach claims the debugging slot for an existing page target.
func (b *Browser) Attach(ctx context.Context, tabID schema.TabID) error {
	b.mu.Lock()
	browserCtx := b.browserCtx
	_, attached := b.tabs[tabID]
	b.mu.Unlock()
	if browserCtx == nil {
		return errors.New("not connected")
	}
	if attached {
		return nil
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(target.ID(tabID)))
	chromedp.ListenTarget(tabCtx, func(ev any) {
		b.onTargetEvent(tabID, ev)
	})
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return fmt.Errorf("attach %s: %w", tabID, err)
	}

	b.mu.Lock()
	b.tabs[tabID] = &tabConn{ctx: tabCtx, cancel: cancel}
	b.mu.Unlock()
	b.logger.Debug("attached to target", "tab", tabID)
	return nil
}

// EnableNetworkEvents turns on Network.* event delivery for an attached tab.
func (b *Browser) EnableNetworkEvents(ctx context.Context, tabID schema.TabID) error {
	conn := b.conn(tabID)
	if conn == nil {
		return fmt.Errorf("enable network events %s: not attached", tabID)
	}
	if err := chromedp.Run(conn.ctx, network.Enable()); err != nil {
		return fmt.Errorf("enable network events %s: %w", tabID, err)
	}
	return nil
}

// Detach releases the tab attachment. The underlying target may already be
// gone; that is not an error.
func (b *Browser) Detach(ctx context.Context, tabID schema.TabID) error {
	b.mu.Lock()
	conn, ok := b.tabs[tabID]
	if ok {
		delete(b.tabs, tabID)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}
	// Cancelling the tab context detaches the session without closing the
	// tab itself.
	conn.cancel()
	b.logger.Debug("detached from target", "tab", tabID)
	return nil
}

// Page describes a debuggable page target.
type Page struct {
	ID    schema.TabID
	Title string
	URL   string
}

// Pages lists the browser's page targets.
func (b *Browser) Pages(ctx context.Context) ([]Page, error) {
	b.mu.Lock()
	browserCtx := b.browserCtx
	b.mu.Unlock()
	if browserCtx == nil {
		return nil, errors.New("not connected")
	}
	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	pages := make([]Page, 0, len(infos))
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		pages = append(pages, Page{
			ID:    schema.TabID(info.TargetID),
			Title: info.Title,
			URL:   info.URL,
		})
	}
	return pages, nil
}

func (b *Browser) conn(tabID schema.TabID) *tabConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tabs[tabID]
}

func (b *Browser) service() core.Service {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.svc
}

// onTargetEvent runs on the tab's event loop; forwarding must not block on
// further protocol calls, so cleanup paths run on their own goroutine.
func (b *Browser) onTargetEvent(tabID schema.TabID, ev any) {
	if detached, ok := ev.(*inspector.EventDetached); ok {
		reason := string(detached.Reason)
		b.logger.Warn("target detached by host", "tab", tabID, "reason", reason)
		go b.handleDetached(tabID, reason)
		return
	}
	method, ok := networkEventMethod(ev)
	if !ok {
		return
	}
	svc := b.service()
	if svc == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("event payload marshal failed", "tab", tabID, "event", method, "err", err)
		return
	}
	if _, err := svc.RecordEvent(b.forwardFor(tabID), schema.RecordEventRequest{
		TabID:   tabID,
		Event:   method,
		Payload: payload,
	}); err != nil {
		b.logger.Warn("event forward failed", "tab", tabID, "event", method, "err", err)
	}
}

func (b *Browser) onBrowserEvent(ev any) {
	destroyed, ok := ev.(*target.EventTargetDestroyed)
	if !ok {
		return
	}
	tabID := schema.TabID(destroyed.TargetID)
	if b.conn(tabID) == nil {
		return
	}
	b.logger.Info("target destroyed", "tab", tabID)
	go b.handleTabRemoved(tabID)
}

func (b *Browser) handleDetached(tabID schema.TabID, reason string) {
	// The attachment is gone; drop the local connection state first.
	_ = b.Detach(b.forward(), tabID)
	svc := b.service()
	if svc == nil {
		return
	}
	if _, err := svc.HandleDetached(b.forwardFor(tabID), schema.DetachedRequest{TabID: tabID, Reason: reason}); err != nil {
		b.logger.Warn("detach handling failed", "tab", tabID, "err", err)
	}
}

func (b *Browser) handleTabRemoved(tabID schema.TabID) {
	svc := b.service()
	if svc == nil {
		_ = b.Detach(b.forward(), tabID)
		return
	}
	if _, err := svc.HandleTabRemoved(b.forwardFor(tabID), schema.TabRemovedRequest{TabID: tabID}); err != nil {
		b.logger.Warn("tab removal handling failed", "tab", tabID, "err", err)
	}
}

func (b *Browser) forward() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.forwardCtx != nil {
		return b.forwardCtx
	}
	return context.Background()
}

// forwardFor annotates the forwarding context with the tab so downstream
// logging carries it without re-annotating.
func (b *Browser) forwardFor(tabID schema.TabID) context.Context {
	return logx.ContextWithTabLogger(b.forward(), b.logger.With("tab", tabID), tabID)
}
