package monobank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the public Monobank personal API endpoint.
	DefaultBaseURL = "https://api.monobank.ua"

	clientInfoPath = "/personal/client-info"
	statementPath  = "/personal/statement"
	webhookPath    = "/personal/webhook"

	// statementWindow is the default statement period, 30 days in seconds.
	statementWindow = 2592000
)

var (
	// ErrTooManyRequests is returned on HTTP 403, which the bank uses for
	// rate limiting on the personal API.
	ErrTooManyRequests = errors.New("monobank: too many requests")

	// ErrUnauthorized is returned when the token is rejected.
	ErrUnauthorized = errors.New("monobank: invalid token")
)

// Client talks to the Monobank personal API. The token is passed per call
// because one process serves many linked accounts.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// GetClientInfo fetches the account holder's cards and jars.
func (c *Client) GetClientInfo(ctx context.Context, token string) (*ClientInfo, error) {
	body, err := c.get(ctx, token, clientInfoPath)
	if err != nil {
		return nil, err
	}

	var info ClientInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode client info: %w", err)
	}

	slog.DebugContext(ctx, "Fetched client info",
		"accounts", len(info.Accounts),
		"jars", len(info.Jars))

	return &info, nil
}

// GetStatements fetches the statement items of one card or jar. Zero bounds
// default to the last 30 days ending now.
func (c *Client) GetStatements(ctx context.Context, token, sourceID string, fromUnix, toUnix int64) ([]StatementItem, error) {
	if toUnix == 0 {
		toUnix = time.Now().Unix()
	}
	if fromUnix == 0 {
		fromUnix = toUnix - statementWindow
	}

	path := fmt.Sprintf("%s/%s/%d/%d", statementPath, sourceID, fromUnix, toUnix)
	body, err := c.get(ctx, token, path)
	if err != nil {
		return nil, err
	}

	var items []StatementItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode statements: %w", err)
	}

	slog.DebugContext(ctx, "Fetched statements",
		"source_id", sourceID,
		"from", fromUnix,
		"to", toUnix,
		"count", len(items))

	return items, nil
}

// SetWebhook registers the push URL for a token. The token is appended as a
// query parameter so webhook deliveries can be attributed to the account.
func (c *Client) SetWebhook(ctx context.Context, token, webhookURL string) error {
	payload, err := json.Marshal(map[string]string{
		"webHookUrl": fmt.Sprintf("%s?token=%s", webhookURL, token),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+webhookPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("X-Token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read webhook response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Webhook registered", "url", webhookURL)
	return nil
}

func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkStatus(status int, body []byte) error {
	switch {
	case status == http.StatusForbidden:
		return ErrTooManyRequests
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status >= 400:
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorDescription != "" {
			return fmt.Errorf("monobank: %s", apiErr.ErrorDescription)
		}
		return fmt.Errorf("monobank: unexpected status %d", status)
	}
	return nil
}
