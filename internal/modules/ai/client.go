// Package ai wraps the external tagging/embedding/recommendation service.
// The service is an opaque HTTP dependency; calls are time-bounded and
// callers degrade gracefully when it is down.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/askspace/core/internal/config"
)

const requestTimeout = 10 * time.Second

// ErrDisabled is returned when the collaborator service is not configured.
var ErrDisabled = errors.New("ai service disabled")

type Client struct {
	baseURL string
	apiKey  string
	enabled bool
	http    *http.Client
}

func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		enabled: cfg.Enable && cfg.BaseURL != "",
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Recommendation is one item suggested for a user.
type Recommendation struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// TagQuestion asks the service to derive subject tags for a question.
func (c *Client) TagQuestion(ctx context.Context, questionID, title, body string) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	err := c.post(ctx, "/tag", map[string]string{
		"question_id": questionID,
		"title":       title,
		"body":        body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// ProcessEmbeddings asks the service to (re)index a question's text.
func (c *Client) ProcessEmbeddings(ctx context.Context, questionID, text string) error {
	return c.post(ctx, "/embeddings", map[string]string{
		"question_id": questionID,
		"text":        text,
	}, nil)
}

// Recommendations fetches content suggestions for a user.
func (c *Client) Recommendations(ctx context.Context, userID string) ([]Recommendation, error) {
	var out struct {
		Items []Recommendation `json:"items"`
	}
	err := c.post(ctx, "/recommendations", map[string]string{
		"user_id": userID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if !c.enabled {
		return ErrDisabled
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("ai service error %d: %s", resp.StatusCode, errResp.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsConnectionError distinguishes transport failures (refused, reset, DNS,
// timeout) from HTTP-level errors. Only connection failures are retried.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
