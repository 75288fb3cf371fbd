package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/internal/logx"
	"pkt.systems/tabcap/schema"
)

// service implements the capture session manager. The sessions map is the
// authority on "are we capturing"; it is mutated only under mu and cleaned
// up unconditionally, regardless of detach outcome.
type service struct {
	cfg       schema.ManagerConfig
	debugger  Debugger
	downloads DownloadStore
	sink      EventSink
	logger    pslog.Logger
	now       func() time.Time
	mu        sync.Mutex
	sessions  map[schema.TabID]*session
}

// NewService constructs the capture service implementation.
func NewService(cfg schema.ManagerConfig, deps ServiceDeps) (Service, error) {
	cfg = schema.NormalizeManagerConfig(cfg)
	if deps.Debugger == nil {
		return nil, schema.ErrDebuggerUnavailable
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cfg:       cfg,
		debugger:  deps.Debugger,
		downloads: deps.Downloads,
		sink:      deps.EventSink,
		logger:    logger,
		now:       now,
		sessions:  make(map[schema.TabID]*session),
	}, nil
}

func (s *service) StartCapture(ctx context.Context, req schema.StartCaptureRequest) (schema.StartCaptureResponse, error) {
	if ctx == nil {
		return schema.StartCaptureResponse{}, errors.New("missing context")
	}
	if err := validateTab(req.TabID); err != nil {
		return schema.StartCaptureResponse{}, err
	}
	log := logx.WithTab(ctx, req.TabID)

	s.mu.Lock()
	if existing, ok := s.sessions[req.TabID]; ok {
		snap := existing.Snapshot()
		s.mu.Unlock()
		log.Debug("capture start ignored; session exists")
		return schema.StartCaptureResponse{Session: snap}, nil
	}
	sess := newSession(req.TabID, s.now())
	s.sessions[req.TabID] = sess
	s.mu.Unlock()

	if err := s.debugger.Attach(ctx, req.TabID); err != nil {
		log.Warn("debugger attach failed", "err", err)
		s.discardSession(req.TabID, sess)
		s.emit(schema.CaptureEvent{TabID: req.TabID, Type: schema.CaptureEventStopped, State: schema.CaptureIdle, Title: schema.TitleStart})
		return schema.StartCaptureResponse{}, err
	}

	// The session can be stopped while the attach call is in flight. When
	// that happened the attach success is suppressed and the fresh
	// attachment released.
	s.mu.Lock()
	current, ok := s.sessions[req.TabID]
	s.mu.Unlock()
	if !ok || current != sess {
		log.Debug("capture session gone after attach; releasing attachment")
		s.detach(ctx, req.TabID, log)
		return schema.StartCaptureResponse{}, nil
	}

	if err := s.debugger.EnableNetworkEvents(ctx, req.TabID); err != nil {
		log.Warn("network event delivery enable failed", "err", err)
		s.discardSession(req.TabID, sess)
		s.detach(ctx, req.TabID, log)
		s.emit(schema.CaptureEvent{TabID: req.TabID, Type: schema.CaptureEventStopped, State: schema.CaptureIdle, Title: schema.TitleStart})
		return schema.StartCaptureResponse{}, err
	}

	s.emit(schema.CaptureEvent{TabID: req.TabID, Type: schema.CaptureEventStarted, State: schema.CaptureActive, Title: schema.TitleStop})
	log.Info("capture started")
	return schema.StartCaptureResponse{Session: sess.Snapshot(), Started: true}, nil
}

func (s *service) RecordEvent(ctx context.Context, req schema.RecordEventRequest) (schema.RecordEventResponse, error) {
	if ctx == nil {
		return schema.RecordEventResponse{}, errors.New("missing context")
	}
	at := s.now()
	s.mu.Lock()
	sess, ok := s.sessions[req.TabID]
	if ok {
		sess.append(schema.NewLogEntry(req.Event, at, req.Payload))
	}
	s.mu.Unlock()
	// Events for tabs without a session are expected and dropped silently.
	return schema.RecordEventResponse{Recorded: ok}, nil
}

func (s *service) StopCapture(ctx context.Context, req schema.StopCaptureRequest) (schema.StopCaptureResponse, error) {
	if ctx == nil {
		return schema.StopCaptureResponse{}, errors.New("missing context")
	}
	if err := validateTab(req.TabID); err != nil {
		return schema.StopCaptureResponse{}, err
	}
	return s.stop(ctx, req.TabID, req.Persist, true), nil
}

func (s *service) ToggleCapture(ctx context.Context, req schema.ToggleCaptureRequest) (schema.ToggleCaptureResponse, error) {
	if ctx == nil {
		return schema.ToggleCaptureResponse{}, errors.New("missing context")
	}
	if err := validateTab(req.TabID); err != nil {
		return schema.ToggleCaptureResponse{}, err
	}
	s.mu.Lock()
	_, capturing := s.sessions[req.TabID]
	s.mu.Unlock()
	if capturing {
		stop := s.stop(ctx, req.TabID, true, true)
		return schema.ToggleCaptureResponse{State: schema.CaptureIdle, Title: schema.TitleStart, Stop: stop}, nil
	}
	resp, err := s.StartCapture(ctx, schema.StartCaptureRequest{TabID: req.TabID})
	if err != nil {
		return schema.ToggleCaptureResponse{State: schema.CaptureIdle, Title: schema.TitleStart}, err
	}
	state := schema.CaptureIdle
	if resp.Started || resp.Session.State == schema.CaptureActive {
		state = schema.CaptureActive
	}
	return schema.ToggleCaptureResponse{State: state, Title: schema.TitleFor(state)}, nil
}

func (s *service) HandleDetached(ctx context.Context, req schema.DetachedRequest) (schema.DetachedResponse, error) {
	if ctx == nil {
		return schema.DetachedResponse{}, errors.New("missing context")
	}
	if err := validateTab(req.TabID); err != nil {
		return schema.DetachedResponse{}, err
	}
	log := logx.WithTab(ctx, req.TabID)
	if req.Reason != "" {
		log = log.With("reason", req.Reason)
	}
	log.Info("debugger detached by host")
	// The attachment is already gone; persist what was captured but skip
	// the detach request.
	return schema.DetachedResponse{Stop: s.stop(ctx, req.TabID, true, false)}, nil
}

func (s *service) HandleTabRemoved(ctx context.Context, req schema.TabRemovedRequest) (schema.TabRemovedResponse, error) {
	if ctx == nil {
		return schema.TabRemovedResponse{}, errors.New("missing context")
	}
	if err := validateTab(req.TabID); err != nil {
		return schema.TabRemovedResponse{}, err
	}
	s.mu.Lock()
	_, capturing := s.sessions[req.TabID]
	s.mu.Unlock()
	if !capturing {
		return schema.TabRemovedResponse{}, nil
	}
	logx.WithTab(ctx, req.TabID).Info("tab removed during capture")
	return schema.TabRemovedResponse{Stop: s.stop(ctx, req.TabID, true, true)}, nil
}

func (s *service) ListSessions(ctx context.Context, req schema.ListSessionsRequest) (schema.ListSessionsResponse, error) {
	if ctx == nil {
		return schema.ListSessionsResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	snapshots := make([]schema.SessionSnapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshots = append(snapshots, sess.Snapshot())
	}
	s.mu.Unlock()
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].StartedAt.Equal(snapshots[j].StartedAt) {
			return snapshots[i].TabID < snapshots[j].TabID
		}
		return snapshots[i].StartedAt.Before(snapshots[j].StartedAt)
	})
	return schema.ListSessionsResponse{Sessions: snapshots}, nil
}

// stop removes the session, optionally exports its entries, and optionally
// requests detach. Session removal is unconditional; only diagnostics depend
// on the detach outcome.
func (s *service) stop(ctx context.Context, tabID schema.TabID, persist, requestDetach bool) schema.StopCaptureResponse {
	log := logx.WithTab(ctx, tabID)

	s.mu.Lock()
	sess, ok := s.sessions[tabID]
	var entries []schema.LogEntry
	if ok {
		delete(s.sessions, tabID)
		entries = sess.entries
	}
	s.mu.Unlock()

	if !ok {
		// No session, but the affordance still resets to "not capturing".
		s.emit(schema.CaptureEvent{TabID: tabID, Type: schema.CaptureEventStopped, State: schema.CaptureIdle, Title: schema.TitleStart})
		log.Debug("capture stop without session")
		return schema.StopCaptureResponse{}
	}

	resp := schema.StopCaptureResponse{Stopped: true, Entries: len(entries)}
	event := schema.CaptureEvent{TabID: tabID, Type: schema.CaptureEventStopped, State: schema.CaptureIdle, Title: schema.TitleStart, Entries: len(entries)}
	switch {
	case persist && len(entries) > 0:
		file, download, err := s.export(ctx, tabID, entries)
		if err != nil {
			// Data loss on this path is accepted; the buffer is gone either way.
			log.Warn("network log export failed", "err", err, "entries", len(entries))
		} else {
			resp.File = file
			resp.Download = download
			event.Type = schema.CaptureEventSaved
			event.File = file
			event.Download = download
			log.Info("network log saved", "file", file, "entries", len(entries))
		}
	case !persist && len(entries) > 0:
		event.Type = schema.CaptureEventDiscarded
		log.Info("capture discarded", "entries", len(entries))
	default:
		log.Info("capture stopped", "entries", 0)
	}

	if requestDetach {
		s.detach(ctx, tabID, log)
	}
	s.emit(event)
	return resp
}

// export serializes entries to the interchange artifact and initiates the
// download. The filename encodes the tab and a millisecond timestamp.
func (s *service) export(ctx context.Context, tabID schema.TabID, entries []schema.LogEntry) (string, schema.DownloadID, error) {
	if s.downloads == nil {
		return "", "", schema.ErrDownloadsUnavailable
	}
	data, err := schema.EncodeLog(entries)
	if err != nil {
		return "", "", err
	}
	name := schema.LogFileName(tabID, s.now())
	download, err := s.downloads.Download(ctx, DownloadRequest{
		Filename:      name,
		Data:          data,
		PromptForPath: s.cfg.PromptForPath,
	})
	if err != nil {
		return "", "", err
	}
	return name, download, nil
}

// detach issues a best-effort detach bounded by the cleanup timeout. Detach
// failures are diagnosed only; they never block cleanup.
func (s *service) detach(ctx context.Context, tabID schema.TabID, log pslog.Logger) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CleanupTimeout)
	defer cancel()
	if err := s.debugger.Detach(dctx, tabID); err != nil {
		log.Warn("debugger detach failed", "err", err)
		return
	}
	log.Debug("debugger detached")
}

// discardSession removes a session only if it is still the one created by
// the caller.
func (s *service) discardSession(tabID schema.TabID, sess *session) {
	s.mu.Lock()
	if current, ok := s.sessions[tabID]; ok && current == sess {
		delete(s.sessions, tabID)
	}
	s.mu.Unlock()
}

func (s *service) emit(event schema.CaptureEvent) {
	if s.sink != nil {
		s.sink.OnCaptureEvent(event)
	}
}

func validateTab(tabID schema.TabID) error {
	if strings.TrimSpace(string(tabID)) == "" {
		return schema.ErrInvalidTab
	}
	return nil
}
