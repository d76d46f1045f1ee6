package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var ErrUnavailable = errors.New("text generator unavailable")

// TextGenerator is the narrow LLM capability the collaborators need.
// Implementations without credentials report Available() == false and the
// callers fall back to deterministic output.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Available() bool
}

type GenerateRequest struct {
	Instructions string
	Input        string
	Temperature  float64
	JSONObject   bool // ask for a JSON object response
}

type ClientConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible chat completions endpoint. Key, model
// and base URL can be swapped at runtime (config or keyring writes); the
// mutex keeps those swaps safe against in-flight generations.
type Client struct {
	mu         sync.RWMutex
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	hc         *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		hc:         cfg.HTTPClient,
	}
}

// SetCredentials swaps key, model and base URL, applying the same defaults
// as NewClient for empty model and base URL.
func (c *Client) SetCredentials(apiKey, model, baseURL string) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(apiKey)
	c.model = model
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	c.mu.Unlock()
}

func (c *Client) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	if strings.TrimSpace(req.Input) == "" {
		return "", errors.New("input is required")
	}

	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": req.Instructions},
			{"role": "user", "content": req.Input},
		},
		"temperature": req.Temperature,
	}
	if req.JSONObject {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		text, callErr := c.call(ctx, encoded)
		if callErr == nil {
			return text, nil
		}
		lastErr = callErr
		if !isRetryable(callErr) || attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
	return "", lastErr
}

type retryableError struct{ error }

func isRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	c.mu.RLock()
	apiKey, baseURL := c.apiKey, c.baseURL
	c.mu.RUnlock()

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", retryableError{fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", retryableError{fmt.Errorf("read chat response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", retryableError{fmt.Errorf("chat status %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat response had no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
