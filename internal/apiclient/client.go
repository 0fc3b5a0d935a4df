// Package apiclient implements port.DocParserAPI over the parsing service's HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docdesk/internal/config"
	"docdesk/internal/domain"
	"docdesk/internal/port"
)

const maxDetailLen = 300

// Client talks to the parsing service. It holds no base address or credential; both arrive
// with every call so that they are resolved per request.
type Client struct {
	client *http.Client
}

var _ port.DocParserAPI = (*Client)(nil)

// NewClient creates a Client using the configured per-request timeout.
func NewClient(cfg *config.APIConfig) *Client {
	return &Client{client: &http.Client{Timeout: cfg.Timeout()}}
}

// NewClientWithHTTP creates a Client around a caller-supplied http.Client (for testing).
func NewClientWithHTTP(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{client: hc}
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends r and returns the body of a 2xx response. No response maps to *domain.TransportError,
// a non-2xx response to *domain.HTTPError.
func (c *Client) do(ctx context.Context, ep domain.Endpoint, r request) ([]byte, error) {
	u := strings.TrimRight(ep.BaseURL, "/") + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	ep.Credential.Apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: r.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Op: r.op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{Status: resp.StatusCode, Detail: parseDetail(respBody)}
	}
	return respBody, nil
}

func (c *Client) getJSON(ctx context.Context, ep domain.Endpoint, op, path string, query url.Values, dst any) error {
	body, err := c.do(ctx, ep, request{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return decode(op, body, dst)
}

func (c *Client) postJSON(ctx context.Context, ep domain.Endpoint, op, path string, query url.Values, payload, dst any) error {
	r := request{op: op, method: http.MethodPost, path: path, query: query}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	body, err := c.do(ctx, ep, r)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return decode(op, body, dst)
}

func decode(op string, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, err)
	}
	return nil
}

// parseDetail extracts the server's `detail` message. Structured details are kept as compact
// JSON; non-JSON bodies are returned trimmed.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 && string(payload.Detail) != "null" {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return truncate(s, maxDetailLen)
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, payload.Detail); err == nil {
			return truncate(buf.String(), maxDetailLen)
		}
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return truncate(text, maxDetailLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func rawOrNil(m json.RawMessage) json.RawMessage {
	if len(m) == 0 || string(m) == "null" {
		return nil
	}
	return m
}
