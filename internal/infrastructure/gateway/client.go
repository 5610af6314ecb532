// Package gateway is the HTTP client for the agent gateway service.
package gateway

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
)

// requestTimeout bounds every gateway call; agent runs can be slow.
const requestTimeout = 2 * time.Minute

// Client issues authenticated requests to the agent gateway. It is stateless
// with respect to sessions: callers supply and receive session identifiers.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the gateway at baseURL.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// HealthInfo is the gateway's self-reported health payload.
type HealthInfo struct {
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime"`
	Memory  struct {
		HeapUsed int64 `json:"heapUsed"`
	} `json:"memory"`
}

// ChatContext identifies the origin of a chat request.
type ChatContext struct {
	Source    string `json:"source"`
	UserID    int64  `json:"user_id,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Quick     bool   `json:"quick,omitempty"`
}

// ChatResult is the gateway's reply to a chat request.
type ChatResult struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// Health fetches the gateway health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var info HealthInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &Error{Kind: KindUpstream, Message: fmt.Sprintf("unmarshal health response: %v", err)}
	}
	return &info, nil
}

// Skills fetches the names of the skills installed on the gateway. The
// endpoint returns either {"skills": [...]} or a bare array, with entries
// that are plain strings or {"name": ...} objects.
func (c *Client) Skills(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/skills", nil)
	if err != nil {
		return nil, err
	}
	return parseSkills(body), nil
}

// Chat sends one user message to the gateway. sessionID may be empty for a
// new conversation; the returned SessionID enables continuity.
func (c *Client) Chat(ctx context.Context, sessionID, message string, chatCtx ChatContext) (*ChatResult, error) {
	payload := map[string]interface{}{
		"message": message,
		"context": chatCtx,
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}

	body, err := c.do(ctx, http.MethodPost, "/api/chat", payload)
	if err != nil {
		return nil, err
	}

	var result ChatResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Kind: KindUpstream, Message: fmt.Sprintf("unmarshal chat response: %v", err)}
	}
	return &result, nil
}

// do makes an authenticated request and returns the response body, mapping
// every failure to a classified *Error.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindUpstream, Message: fmt.Sprintf("marshal request: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := classifyTransport(err)
		c.logger.Warn("gateway request failed",
			zap.String("path", path),
			zap.Error(gwErr))
		return nil, gwErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindAuth, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncateForLog(string(body), 200)),
		}
	}

	return body, nil
}

// parseSkills extracts skill names from the loosely specified skills payload.
func parseSkills(body []byte) []string {
	var wrapper struct {
		Skills []json.RawMessage `json:"skills"`
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Skills != nil {
		items = wrapper.Skills
	} else if err := json.Unmarshal(body, &items); err != nil {
		return nil
	}

	names := make([]string, 0, len(items))
	for _, raw := range items {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			names = append(names, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
			names = append(names, obj.Name)
		}
	}
	return names
}

// truncateForLog returns s truncated to maxLen with "..." suffix for safe logging.
func truncateForLog(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
