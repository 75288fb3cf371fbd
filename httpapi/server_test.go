package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/tabcap/chrome"
	"pkt.systems/tabcap/core"
	"pkt.systems/tabcap/schema"
)

type fakeService struct {
	core.Service
	toggleErr error
	toggled   []schema.TabID
	sessions  []schema.SessionSnapshot
}

func (f *fakeService) ToggleCapture(_ context.Context, req schema.ToggleCaptureRequest) (schema.ToggleCaptureResponse, error) {
	f.toggled = append(f.toggled, req.TabID)
	if f.toggleErr != nil {
		return schema.ToggleCaptureResponse{State: schema.CaptureIdle, Title: schema.TitleStart}, f.toggleErr
	}
	return schema.ToggleCaptureResponse{State: schema.CaptureActive, Title: schema.TitleStop}, nil
}

func (f *fakeService) ListSessions(context.Context, schema.ListSessionsRequest) (schema.ListSessionsResponse, error) {
	return schema.ListSessionsResponse{Sessions: f.sessions}, nil
}

type fakePages struct {
	pages []chrome.Page
	err   error
}

func (f *fakePages) Pages(context.Context) ([]chrome.Page, error) {
	return f.pages, f.err
}

func newTestServer(t *testing.T, svc core.Service, pages PageLister) *httptest.Server {
	t.Helper()
	server, err := New(Config{Addr: "127.0.0.1:0"}, Deps{Service: svc, Pages: pages})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestToggleRoute(t *testing.T) {
	svc := &fakeService{}
	ts := newTestServer(t, svc, &fakePages{})
	resp, err := http.Post(ts.URL+"/api/tabs/7/toggle", "application/json", strings.NewReader(""))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["toggle"] != schema.TitleStop {
		t.Fatalf("expected stop title, got %v", body["toggle"])
	}
	if len(svc.toggled) != 1 || svc.toggled[0] != "7" {
		t.Fatalf("expected toggle for tab 7, got %v", svc.toggled)
	}
}

func TestToggleRouteReportsFailure(t *testing.T) {
	svc := &fakeService{toggleErr: errors.New("attach failed")}
	ts := newTestServer(t, svc, &fakePages{})
	resp, err := http.Post(ts.URL+"/api/tabs/7/toggle", "application/json", strings.NewReader(""))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["toggle"] != schema.TitleStart {
		t.Fatalf("expected affordance reset on failure, got %v", body["toggle"])
	}
}

func TestTabsRouteMergesCaptureState(t *testing.T) {
	svc := &fakeService{sessions: []schema.SessionSnapshot{{
		TabID:     "a",
		State:     schema.CaptureActive,
		Title:     schema.TitleStop,
		Entries:   3,
		StartedAt: time.Now(),
	}}}
	pages := &fakePages{pages: []chrome.Page{
		{ID: "a", Title: "Bank", URL: "https://bank.example"},
		{ID: "b", Title: "News", URL: "https://news.example"},
	}}
	ts := newTestServer(t, svc, pages)
	resp, err := http.Get(ts.URL + "/api/tabs")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Tabs []struct {
			ID      string `json:"id"`
			State   string `json:"state"`
			Toggle  string `json:"toggle"`
			Entries int    `json:"entries"`
		} `json:"tabs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(body.Tabs))
	}
	if body.Tabs[0].State != string(schema.CaptureActive) || body.Tabs[0].Toggle != schema.TitleStop || body.Tabs[0].Entries != 3 {
		t.Fatalf("unexpected capturing tab view %+v", body.Tabs[0])
	}
	if body.Tabs[1].State != string(schema.CaptureIdle) || body.Tabs[1].Toggle != schema.TitleStart {
		t.Fatalf("unexpected idle tab view %+v", body.Tabs[1])
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeService{}, &fakePages{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
