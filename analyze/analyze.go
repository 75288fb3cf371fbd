// Package analyze asks a language model which captured requests matter for
// the login flow and reduces an exported log to those entries.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/schema"
)

const (
	// DefaultBaseURL is the Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultModel is used when the config does not name one.
	DefaultModel = "claude-opus-4-20250514"
	// DefaultMaxTokens bounds the model's reply; a list of request IDs is
	// small.
	DefaultMaxTokens = 2048

	apiVersion = "2023-06-01"
)

// Config for the analyzer client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// Client identifies login-critical entries in an exported log.
type Client struct {
	cfg    Config
	rest   *resty.Client
	logger pslog.Logger
}

// New constructs a Client. The API key is required.
func New(cfg Config, logger pslog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json")
	return &Client{cfg: cfg, rest: rest, logger: logger}, nil
}

const systemPrompt = "You are a helpful assistant that returns only JSON arrays."

const promptTemplate = "Given the following network log entries in JSON, " +
	"return all unique 'requestId' values for objects that are critical for the login process. " +
	"Critical objects include any request or event directly involved in authentication, credential submission, " +
	"session/token exchange, or that provides a value (such as TOKEN, DEVICE_SESSION, transkeyUuid, or any other field) " +
	"used in another login-related request. " +
	"If a POST request or its headers contains a value that matches a value in a previous or subsequent network event " +
	"(for example, in 'postData', 'postDataEntries', headers, or any nested field), " +
	"then both the POST request and the matching network event are critical for the login process. " +
	"For example, if request A has 'TOKEN=abc' and request B uses 'TOKEN=abc', both A and B are critical. " +
	"Return a JSON array of all unique 'requestId' strings for all such critical objects, no explanation. " +
	"If an object does not have a 'requestId', skip it. " +
	"Here is the data:\n%s"

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CriticalRequestIDs asks the model for the request IDs that are critical
// for the login flow in the given entries.
func (c *Client) CriticalRequestIDs(ctx context.Context, entries []schema.LogEntry) ([]string, error) {
	encoded, err := schema.EncodeLog(entries)
	if err != nil {
		return nil, err
	}
	req := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    systemPrompt,
		Messages: []message{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: fmt.Sprintf(promptTemplate, encoded)}},
		}},
	}
	var body messagesResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		SetError(&body).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("messages request: %w", err)
	}
	if resp.IsError() {
		if body.Error != nil {
			return nil, fmt.Errorf("messages request: %s: %s", body.Error.Type, body.Error.Message)
		}
		return nil, fmt.Errorf("messages request: status %d", resp.StatusCode())
	}
	if len(body.Content) == 0 {
		return nil, fmt.Errorf("messages request: empty response")
	}
	text := stripCodeFence(body.Content[0].Text)
	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	c.logger.Debug("model identified critical requests", "count", len(ids))
	return ids, nil
}

var codeFence = regexp.MustCompile("(?m)^```json|^```|```$")

func stripCodeFence(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

type keyedPayload struct {
	RequestID string `json:"requestId"`
}

// FilterByRequestIDs keeps the entries whose payload carries one of the
// given request IDs. Entries without a requestId are skipped.
func FilterByRequestIDs(entries []schema.LogEntry, ids []string) []schema.LogEntry {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	kept := make([]schema.LogEntry, 0, len(entries))
	for _, entry := range entries {
		var payload keyedPayload
		if err := json.Unmarshal(entry.Data, &payload); err != nil || payload.RequestID == "" {
			continue
		}
		if _, ok := wanted[payload.RequestID]; ok {
			kept = append(kept, entry)
		}
	}
	return kept
}

// File reduces an exported artifact to its login-critical entries and
// writes the result next to the input shape. Returns the number of entries
// kept.
func (c *Client) File(ctx context.Context, inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read log: %w", err)
	}
	entries, err := schema.DecodeLog(data)
	if err != nil {
		return 0, err
	}
	ids, err := c.CriticalRequestIDs(ctx, entries)
	if err != nil {
		return 0, err
	}
	kept := FilterByRequestIDs(entries, ids)
	out, err := schema.EncodeLog(kept)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return 0, fmt.Errorf("write analyzed log: %w", err)
	}
	return len(kept), nil
}

// CriticalName derives the output artifact name from the input name.
func CriticalName(inputName string) string {
	return "critical_" + inputName
}
