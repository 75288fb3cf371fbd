// Package httpapi exposes the capture toggle and status over HTTP. The
// toggle route is the single user-facing action; everything else is
// introspection.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/chrome"
	"pkt.systems/tabcap/core"
	"pkt.systems/tabcap/schema"
)

// PageLister lists the browser's debuggable page targets.
type PageLister interface {
	Pages(ctx context.Context) ([]chrome.Page, error)
}

// Deps captures the server's dependencies.
type Deps struct {
	Service core.Service
	Pages   PageLister
	Logger  pslog.Logger
}

// Server serves the control API.
type Server struct {
	cfg    Config
	svc    core.Service
	pages  PageLister
	logger pslog.Logger
	engine *gin.Engine
}

// New constructs the control API server.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, schema.ErrDebuggerUnavailable
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Server{
		cfg:    cfg,
		svc:    deps.Service,
		pages:  deps.Pages,
		logger: logger,
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(s.requestLogger(), gin.Recovery())
	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api")
	api.GET("/tabs", s.handleTabs)
	api.POST("/tabs/:id/toggle", s.handleToggle)
	api.GET("/sessions", s.handleSessions)
	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve runs the server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return ListenAndServe(pslog.ContextWithLogger(ctx, s.logger), s.cfg.Addr, s.engine)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type tabView struct {
	ID      schema.TabID        `json:"id"`
	Title   string              `json:"title"`
	URL     string              `json:"url"`
	State   schema.CaptureState `json:"state"`
	Toggle  string              `json:"toggle"`
	Entries int                 `json:"entries"`
}

func (s *Server) handleTabs(c *gin.Context) {
	if s.pages == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "browser not connected"})
		return
	}
	pages, err := s.pages.Pages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	sessions, err := s.svc.ListSessions(c.Request.Context(), schema.ListSessionsRequest{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	active := make(map[schema.TabID]schema.SessionSnapshot, len(sessions.Sessions))
	for _, sess := range sessions.Sessions {
		active[sess.TabID] = sess
	}
	views := make([]tabView, 0, len(pages))
	for _, page := range pages {
		view := tabView{
			ID:     page.ID,
			Title:  page.Title,
			URL:    page.URL,
			State:  schema.CaptureIdle,
			Toggle: schema.TitleStart,
		}
		if sess, ok := active[page.ID]; ok {
			view.State = sess.State
			view.Toggle = sess.Title
			view.Entries = sess.Entries
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"tabs": views})
}

func (s *Server) handleToggle(c *gin.Context) {
	tabID := schema.TabID(c.Param("id"))
	resp, err := s.svc.ToggleCapture(c.Request.Context(), schema.ToggleCaptureRequest{TabID: tabID})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "state": resp.State, "toggle": resp.Title})
		return
	}
	body := gin.H{"state": resp.State, "toggle": resp.Title}
	if resp.Stop.Stopped {
		body["entries"] = resp.Stop.Entries
		if resp.Stop.File != "" {
			body["file"] = resp.Stop.File
			body["download"] = resp.Stop.Download
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSessions(c *gin.Context) {
	resp, err := s.svc.ListSessions(c.Request.Context(), schema.ListSessionsRequest{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type sessionView struct {
		TabID     schema.TabID `json:"tabId"`
		Entries   int          `json:"entries"`
		StartedAt time.Time    `json:"startedAt"`
	}
	views := make([]sessionView, 0, len(resp.Sessions))
	for _, sess := range resp.Sessions {
		views = append(views, sessionView{TabID: sess.TabID, Entries: sess.Entries, StartedAt: sess.StartedAt})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}
