// Package api is the typed client for the platform's resource API. Operations
// are named <resource>.<action> and exchanged as JSON over HTTP with x-api-key
// auth. Every call is a single attempt; retry policy belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to one platform instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	// Debug enables redacted request/response body logging.
	Debug bool
}

// Error is a non-2xx response from the platform.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// ErrNoIdentifier marks a create response that decoded fine but carried no
// resource id in any known shape. Distinct from transport errors so callers
// can tell "the call worked but the API shape changed" apart from failures.
var ErrNoIdentifier = errors.New("response contained no resource identifier")

func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "api-client").Logger(),
	}
}

func (c *Client) get(ctx context.Context, op string, query url.Values) (json.RawMessage, error) {
	u := c.baseURL + "/api/" + op
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, op, u, nil)
}

func (c *Client) post(ctx context.Context, op string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, op, c.baseURL+"/api/"+op, body)
}

func (c *Client) do(ctx context.Context, method, op, u string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	var reqData []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqData = data
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-request-id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Debug && reqData != nil {
		c.logger.Debug().Str("op", op).RawJSON("request", redact(reqData)).Msg("api request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if c.Debug {
		c.logger.Debug().Str("op", op).Int("status", resp.StatusCode).
			RawJSON("response", redact(respData)).Msg("api response")
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(respData)}
	}

	return respData, nil
}

// errorMessage pulls a human-readable message out of an error body, falling
// back to the raw body text.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return string(body)
}

// extractID digs a resource id out of a create response. The platform answers
// either flat ({"projectId": ...} or {"id": ...}) or with the resource nested
// under its own key ({"project": {...}}). Anything else is ErrNoIdentifier.
func extractID(body json.RawMessage, resource string) (string, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", fmt.Errorf("parse %s response: %w", resource, err)
	}

	if id := stringField(m, resource+"Id"); id != "" {
		return id, nil
	}
	if id := stringField(m, "id"); id != "" {
		return id, nil
	}

	if nested, ok := m[resource]; ok {
		var nm map[string]json.RawMessage
		if err := json.Unmarshal(nested, &nm); err == nil {
			if id := stringField(nm, resource+"Id"); id != "" {
				return id, nil
			}
			if id := stringField(nm, "id"); id != "" {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("%s: %w", resource, ErrNoIdentifier)
}

func stringField(m map[string]json.RawMessage, key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
