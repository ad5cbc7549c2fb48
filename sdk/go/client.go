package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"progressionkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the progression HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// SubmitQuiz records one quiz result and returns the full progress report.
func (c *Client) SubmitQuiz(ctx context.Context, userID string, quiz QuizSubmission) (ProgressReport, error) {
	if strings.TrimSpace(userID) == "" {
		return ProgressReport{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/quiz", c.baseURL, url.PathEscape(userID))

	var report ProgressReport
	if err := c.postJSON(ctx, u, quiz, &report); err != nil {
		return ProgressReport{}, err
	}
	return report, nil
}

// GetUser fetches the current progression state for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (UserState, error) {
	if strings.TrimSpace(userID) == "" {
		return UserState{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))

	var st UserState
	if err := c.getJSON(ctx, u, &st); err != nil {
		return UserState{}, err
	}
	return st, nil
}

// Achievements lists the achievement IDs the user has unlocked.
func (c *Client) Achievements(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/achievements", c.baseURL, url.PathEscape(userID))

	var body struct {
		Achievements []string `json:"achievements"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Achievements, nil
}

// AchievementCatalog fetches the full set of defined achievements.
func (c *Client) AchievementCatalog(ctx context.Context) ([]Achievement, error) {
	var catalog []Achievement
	if err := c.getJSON(ctx, c.baseURL+"/achievements", &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// RefreshQuests generates a fresh set of daily quests for the user.
func (c *Client) RefreshQuests(ctx context.Context, userID string, userLevel int, preferences []string) ([]Quest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/quests", c.baseURL, url.PathEscape(userID))

	payload := map[string]any{"user_level": userLevel, "preferences": preferences}
	var body struct {
		Quests []Quest `json:"quests"`
	}
	if err := c.postJSON(ctx, u, payload, &body); err != nil {
		return nil, err
	}
	return body.Quests, nil
}

// ActiveQuests lists the user's unexpired quests.
func (c *Client) ActiveQuests(ctx context.Context, userID string) ([]Quest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/quests", c.baseURL, url.PathEscape(userID))

	var body struct {
		Quests []Quest `json:"quests"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Quests, nil
}

// SubmitScore pushes a leaderboard score and returns the resulting standing.
func (c *Client) SubmitScore(ctx context.Context, userID string, score int64, category, period string) (Standing, error) {
	if strings.TrimSpace(userID) == "" {
		return Standing{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/leaderboard", c.baseURL, url.PathEscape(userID))

	payload := map[string]any{"score": score, "category": category, "period": period}
	var standing Standing
	if err := c.postJSON(ctx, u, payload, &standing); err != nil {
		return Standing{}, err
	}
	return standing, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
// Pass a non-empty userID to receive only that user's events.
func (c *Client) SubscribeEvents(ctx context.Context, userID string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if strings.TrimSpace(userID) != "" {
		target += "?user=" + url.QueryEscape(userID)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) postJSON(ctx context.Context, u string, payload, target any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
