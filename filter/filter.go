package filter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"pkt.systems/tabcap/schema"
)

// Mode selects the filtering strategy.
type Mode string

const (
	// ModeRules applies the scheme/extension/keyword rules to POST requests
	// and keeps websocket frames with meaningful return values.
	ModeRules Mode = "rules"
	// ModePriority additionally keeps high-priority same-site POSTs and any
	// entry whose payload contains the configured secret.
	ModePriority Mode = "priority"
)

// Options tunes a filter beyond the rule set.
type Options struct {
	Mode Mode
	// ExtraKeywords extends the include list, e.g. the login URLs a user
	// supplies for a specific site.
	ExtraKeywords []string
	// Secret marks entries as relevant when its literal value appears in a
	// request body or websocket frame (priority mode only).
	Secret string
}

// Filter applies rules to exported log entries.
type Filter struct {
	rules    Rules
	mode     Mode
	keywords []string
	secret   *regexp.Regexp
}

// New builds a filter from rules and options.
func New(rules Rules, opts Options) (*Filter, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeRules
	}
	if mode != ModeRules && mode != ModePriority {
		return nil, fmt.Errorf("unknown filter mode %q", mode)
	}
	keywords := make([]string, 0, len(rules.IncludedKeywords)+len(opts.ExtraKeywords))
	for _, kw := range append(append([]string{}, rules.IncludedKeywords...), opts.ExtraKeywords...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	f := &Filter{rules: rules, mode: mode, keywords: keywords}
	if opts.Secret != "" {
		f.secret = regexp.MustCompile(regexp.QuoteMeta(opts.Secret))
	}
	return f, nil
}

// Apply returns the entries that survive filtering, order preserved.
func (f *Filter) Apply(entries []schema.LogEntry) []schema.LogEntry {
	kept := make([]schema.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if f.keep(entry) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// File filters an exported artifact into a new artifact of the same shape.
// Returns the number of entries kept.
func (f *Filter) File(inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read log: %w", err)
	}
	entries, err := schema.DecodeLog(data)
	if err != nil {
		return 0, err
	}
	kept := f.Apply(entries)
	out, err := schema.EncodeLog(kept)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return 0, fmt.Errorf("write filtered log: %w", err)
	}
	return len(kept), nil
}

// FilteredName derives the output artifact name from the input name.
func FilteredName(inputName string) string {
	return "filtered_" + inputName
}

// Websocket frames carrying these markers are empty poll responses.
var emptyReturnMarkers = []string{`,"ReturnValue":"",`, `,"ReturnValue":"0",`}

type requestPayload struct {
	Request *struct {
		URL             string `json:"url"`
		Method          string `json:"method"`
		HasPostData     bool   `json:"hasPostData"`
		PostData        string `json:"postData"`
		InitialPriority string `json:"initialPriority"`
		IsSameSite      bool   `json:"isSameSite"`
	} `json:"request"`
}

type framePayload struct {
	Response *struct {
		PayloadData string `json:"payloadData"`
	} `json:"response"`
}

func (f *Filter) keep(entry schema.LogEntry) bool {
	switch entry.Type {
	case "Network.webSocketFrameReceived":
		return f.keepFrame(entry)
	case "Network.webSocketFrameSent":
		if f.mode != ModePriority {
			return false
		}
		return f.keepFrame(entry)
	case "Network.requestWillBeSent":
		return f.keepRequest(entry)
	default:
		return false
	}
}

func (f *Filter) keepFrame(entry schema.LogEntry) bool {
	var payload framePayload
	if err := json.Unmarshal(entry.Data, &payload); err != nil || payload.Response == nil {
		return false
	}
	data := payload.Response.PayloadData
	if f.secret != nil && f.secret.MatchString(data) {
		return true
	}
	for _, marker := range emptyReturnMarkers {
		if strings.Contains(data, marker) {
			return false
		}
	}
	return true
}

func (f *Filter) keepRequest(entry schema.LogEntry) bool {
	var payload requestPayload
	if err := json.Unmarshal(entry.Data, &payload); err != nil || payload.Request == nil {
		return false
	}
	req := payload.Request
	if !req.HasPostData {
		return false
	}
	lowered := strings.ToLower(req.URL)
	if f.secret != nil && req.PostData != "" && f.secret.MatchString(req.PostData) {
		return true
	}
	if f.mode == ModePriority && isPriorityRequest(req.InitialPriority, req.IsSameSite, req.Method, req.PostData) {
		return true
	}
	if f.mode == ModeRules {
		if invalidScheme(lowered, f.rules.InvalidSchemes) {
			return false
		}
		if containsKeyword(lowered, f.keywords) {
			return true
		}
	}
	return !excludedExtension(lowered, f.rules.ExcludedExtensions)
}

// isPriorityRequest marks high-priority same-site POSTs with a non-empty
// body as relevant regardless of URL rules.
func isPriorityRequest(priority string, sameSite bool, method, postData string) bool {
	if priority != "VeryHigh" && priority != "High" {
		return false
	}
	return sameSite && method == "POST" && postData != "" && postData != "{}"
}

var numericHost = regexp.MustCompile(`^https://\d`)

func invalidScheme(lowered string, schemes []string) bool {
	for _, scheme := range schemes {
		if strings.HasPrefix(lowered, scheme) {
			return true
		}
	}
	return numericHost.MatchString(lowered)
}

func containsKeyword(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func excludedExtension(lowered string, extensions []string) bool {
	parsed, err := url.Parse(lowered)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
