// Package ollama implements the chat protocol of Ollama-compatible model
// servers, both local daemons and the managed cloud endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/geojobs/internal/llm"
	"github.com/spigell/geojobs/internal/logger"
)

const (
	chatPath       = "/api/chat"
	defaultTimeout = 60 * time.Second

	// deterministic extraction: zero temperature, fixed context window.
	numCtx = 8192
)

type Client struct {
	host   string
	model  string
	apiKey string
	logger *zap.Logger

	HTTPClient *http.Client
}

// New creates a client for the given endpoint and model identifier. The
// bearer credential is attached only when apiKey is set, which is the
// managed-endpoint case.
func New(host, model, apiKey string, log *zap.Logger) *Client {
	return &Client{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		apiKey: apiKey,
		logger: logger.WithCommonFields(log, "ollama", model),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.model, c.host)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Format   string         `json:"format"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
	Messages []message      `json:"messages"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	// Some server builds answer with a flat response field instead.
	Response string `json:"response"`
}

// Chat sends the system and user instructions and returns the raw content
// of the model's reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model:  c.model,
		Format: "json",
		Stream: false,
		Options: map[string]any{
			"num_ctx":     numCtx,
			"temperature": 0,
		},
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	data, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	content := resp.Message.Content
	if content == "" {
		content = resp.Response
	}
	if content == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}

	return content, nil
}

// Probe issues a minimal chat call to check reachability. The reply body
// is not interpreted.
func (c *Client) Probe(ctx context.Context) error {
	body := chatRequest{
		Model:  c.model,
		Format: "json",
		Stream: false,
		Messages: []message{
			{Role: "user", Content: `{"probe": true}`},
		},
	}

	_, err := c.post(ctx, body)
	return err
}

func (c *Client) post(ctx context.Context, body chatRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := c.host + chatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("model request", zap.String("url", url))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &llm.StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
