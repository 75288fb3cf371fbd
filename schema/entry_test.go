package schema

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestLogRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 5, 12, 30, 45, 123_000_000, time.UTC)
	entries := []LogEntry{
		NewLogEntry("Network.requestWillBeSent", at, json.RawMessage(`{"request":{"url":"https://a"}}`)),
		NewLogEntry("Network.responseReceived", at.Add(120*time.Millisecond), json.RawMessage(`{"response":{"status":200}}`)),
		NewLogEntry("Network.loadingFinished", at.Add(time.Second), json.RawMessage(`{}`)),
	}
	data, err := EncodeLog(entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeLog(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(decoded))
	}
	for i, entry := range entries {
		if decoded[i].Type != entry.Type {
			t.Fatalf("entry %d type %q, want %q", i, decoded[i].Type, entry.Type)
		}
		if decoded[i].Timestamp != entry.Timestamp {
			t.Fatalf("entry %d timestamp %q, want %q", i, decoded[i].Timestamp, entry.Timestamp)
		}
		var got, want any
		if err := json.Unmarshal(decoded[i].Data, &got); err != nil {
			t.Fatalf("entry %d data: %v", i, err)
		}
		if err := json.Unmarshal(entry.Data, &want); err != nil {
			t.Fatalf("entry %d data: %v", i, err)
		}
		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(want)
		if !bytes.Equal(gotJSON, wantJSON) {
			t.Fatalf("entry %d data %s, want %s", i, gotJSON, wantJSON)
		}
	}
}

func TestEncodeLogEmpty(t *testing.T) {
	data, err := EncodeLog(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestEncodeLogIndentation(t *testing.T) {
	at := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	data, err := EncodeLog([]LogEntry{NewLogEntry("Network.dataReceived", at, json.RawMessage(`{"n":1}`))})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  {")) {
		t.Fatalf("expected 2-space indented array, got %s", data)
	}
}

func TestNewLogEntryTimestamp(t *testing.T) {
	at := time.Date(2025, 6, 5, 12, 30, 45, 123_000_000, time.FixedZone("KST", 9*3600))
	entry := NewLogEntry("Network.responseReceived", at, nil)
	if entry.Timestamp != "2025-06-05T03:30:45.123Z" {
		t.Fatalf("unexpected timestamp %q", entry.Timestamp)
	}
}

func TestLogFileName(t *testing.T) {
	at := time.UnixMilli(1749126956709)
	name := LogFileName(TabID("7"), at)
	if name != "network_log_tab_7_1749126956709.json" {
		t.Fatalf("unexpected file name %q", name)
	}
}

func TestTitleFor(t *testing.T) {
	if TitleFor(CaptureActive) != TitleStop {
		t.Fatalf("active state should map to stop title")
	}
	if TitleFor(CaptureIdle) != TitleStart {
		t.Fatalf("idle state should map to start title")
	}
	if TitleFor(CaptureState("")) != TitleStart {
		t.Fatalf("unknown state should map to start title")
	}
}
