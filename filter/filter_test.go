package filter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/tabcap/schema"
)

func requestEntry(t *testing.T, url, method string, hasPostData bool, postData, priority string, sameSite bool) schema.LogEntry {
	t.Helper()
	payload := map[string]any{
		"requestId": "1",
		"request": map[string]any{
			"url":             url,
			"method":          method,
			"hasPostData":     hasPostData,
			"postData":        postData,
			"initialPriority": priority,
			"isSameSite":      sameSite,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return schema.LogEntry{Type: "Network.requestWillBeSent", Timestamp: "2025-06-05T03:30:45.123Z", Data: data}
}

func frameEntry(t *testing.T, eventType, payloadData string) schema.LogEntry {
	t.Helper()
	payload := map[string]any{
		"requestId": "2",
		"response":  map[string]any{"payloadData": payloadData},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return schema.LogEntry{Type: eventType, Timestamp: "2025-06-05T03:30:45.123Z", Data: data}
}

func mustFilter(t *testing.T, opts Options) *Filter {
	t.Helper()
	f, err := New(DefaultRules(), opts)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	return f
}

func TestRulesModeKeepsKeywordRequests(t *testing.T) {
	f := mustFilter(t, Options{})
	entries := []schema.LogEntry{
		requestEntry(t, "https://bank.example/api/transfer", "POST", true, `{"amount":1}`, "High", true),
		requestEntry(t, "https://bank.example/assets/app.js", "POST", true, "x", "Low", true),
		requestEntry(t, "https://bank.example/page", "GET", false, "", "Low", true),
		requestEntry(t, "data:text/html,hello", "POST", true, "x", "Low", true),
	}
	kept := f.Apply(entries)
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept entry, got %d", len(kept))
	}
	var payload struct {
		Request struct {
			URL string `json:"url"`
		} `json:"request"`
	}
	if err := json.Unmarshal(kept[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Request.URL != "https://bank.example/api/transfer" {
		t.Fatalf("unexpected kept request %q", payload.Request.URL)
	}
}

func TestRulesModeDropsNumericHosts(t *testing.T) {
	f := mustFilter(t, Options{})
	entries := []schema.LogEntry{
		requestEntry(t, "https://127.0.0.1/api/retrieve", "POST", true, "x", "Low", true),
	}
	if kept := f.Apply(entries); len(kept) != 0 {
		t.Fatalf("expected numeric host drop, kept %d", len(kept))
	}
}

func TestRulesModeWebsocketFrames(t *testing.T) {
	f := mustFilter(t, Options{})
	entries := []schema.LogEntry{
		frameEntry(t, "Network.webSocketFrameReceived", `{"Result":"x","ReturnValue":"42","Tag":1}`),
		frameEntry(t, "Network.webSocketFrameReceived", `{"Result":"x","ReturnValue":"","Tag":1}`),
		frameEntry(t, "Network.webSocketFrameReceived", `{"Result":"x","ReturnValue":"0","Tag":1}`),
		frameEntry(t, "Network.webSocketFrameSent", `{"Command":"poll"}`),
	}
	kept := f.Apply(entries)
	if len(kept) != 1 {
		t.Fatalf("expected only the meaningful received frame, got %d", len(kept))
	}
}

func TestPriorityModeKeepsHighPrioritySameSitePosts(t *testing.T) {
	f := mustFilter(t, Options{Mode: ModePriority})
	entries := []schema.LogEntry{
		requestEntry(t, "https://bank.example/obscure/path", "POST", true, `{"user":"a"}`, "VeryHigh", true),
		requestEntry(t, "https://bank.example/obscure/path", "POST", true, "{}", "High", true),
		requestEntry(t, "https://bank.example/obscure/path", "POST", true, `{"user":"a"}`, "High", false),
		requestEntry(t, "https://bank.example/app.js", "POST", true, `{"user":"a"}`, "Low", true),
	}
	kept := f.Apply(entries)
	if len(kept) != 1 {
		t.Fatalf("expected 1 priority entry, got %d", len(kept))
	}
}

func TestPriorityModeKeepsSentFrames(t *testing.T) {
	f := mustFilter(t, Options{Mode: ModePriority})
	entries := []schema.LogEntry{
		frameEntry(t, "Network.webSocketFrameSent", `{"Command":"login"}`),
	}
	if kept := f.Apply(entries); len(kept) != 1 {
		t.Fatalf("expected sent frame kept in priority mode, got %d", len(kept))
	}
}

func TestSecretOverridesDrops(t *testing.T) {
	f := mustFilter(t, Options{Mode: ModePriority, Secret: "s3cr3t"})
	entries := []schema.LogEntry{
		requestEntry(t, "https://bank.example/app.js", "POST", true, `{"token":"s3cr3t"}`, "Low", false),
		frameEntry(t, "Network.webSocketFrameReceived", `{"ReturnValue":"","token":"s3cr3t"}`),
	}
	if kept := f.Apply(entries); len(kept) != 2 {
		t.Fatalf("expected secret matches kept, got %d", len(kept))
	}
}

func TestExtraKeywords(t *testing.T) {
	f := mustFilter(t, Options{ExtraKeywords: []string{"Login.do"}})
	entries := []schema.LogEntry{
		requestEntry(t, "https://bank.example/login.do", "POST", true, "x", "Low", true),
	}
	if kept := f.Apply(entries); len(kept) != 1 {
		t.Fatalf("expected extra keyword match, got %d", len(kept))
	}
}

func TestUnknownModeRejected(t *testing.T) {
	if _, err := New(DefaultRules(), Options{Mode: "bogus"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "network_log_tab_7_1749126956709.json")
	out := filepath.Join(dir, "filtered_network_log_tab_7_1749126956709.json")
	entries := []schema.LogEntry{
		requestEntry(t, "https://bank.example/api/transfer", "POST", true, "x", "Low", true),
		requestEntry(t, "https://bank.example/app.js", "POST", true, "x", "Low", true),
	}
	data, err := schema.EncodeLog(entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := mustFilter(t, Options{})
	kept, err := f.File(in, out)
	if err != nil {
		t.Fatalf("filter file: %v", err)
	}
	if kept != 1 {
		t.Fatalf("expected 1 kept entry, got %d", kept)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	decoded, err := schema.DecodeLog(written)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 entry in output, got %d", len(decoded))
	}
}

func TestLoadRulesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	body := "included_keywords:\n  - custom\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules.IncludedKeywords) != 1 || rules.IncludedKeywords[0] != "custom" {
		t.Fatalf("expected keyword override, got %v", rules.IncludedKeywords)
	}
	if len(rules.ExcludedExtensions) == 0 {
		t.Fatal("expected default extensions preserved")
	}
}

func TestOutputFileName(t *testing.T) {
	name := schema.LogFileName("7", time.UnixMilli(1749126956709))
	if name != "network_log_tab_7_1749126956709.json" {
		t.Fatalf("unexpected name %q", name)
	}
	if got := FilteredName(name); got != "filtered_network_log_tab_7_1749126956709.json" {
		t.Fatalf("unexpected filtered name %q", got)
	}
}
