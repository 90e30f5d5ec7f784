package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.cloudflare.com"
	requestBodyReadLimit int64 = 1024
)

const (
	recordingModeAutomatic  = "automatic"
	recordingTimeoutSeconds = 0
	inputRetentionDays      = 30
	recordingRetentionDays  = 45
)

var (
	errAccountRequired = errors.New("cloudflare account id is required")
	errTokenRequired   = errors.New("cloudflare api token is required")
)

// Client talks to the Cloudflare Stream API for a single account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// NewClient builds a Stream client for accountID authenticated with apiToken.
func NewClient(accountID, apiToken string, opts ...Option) (*Client, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, errAccountRequired
	}
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		accountID:  accountID,
		apiToken:   apiToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Endpoint is a single ingest or playback address of a live input.
type Endpoint struct {
	URL        string `json:"url,omitempty"`
	StreamKey  string `json:"streamKey,omitempty"`
	StreamID   string `json:"streamId,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// LiveInput is a Stream live input with its ingest and playback endpoints.
type LiveInput struct {
	UID            string          `json:"uid"`
	Status         json.RawMessage `json:"status,omitempty"`
	Meta           map[string]any  `json:"meta,omitempty"`
	RTMPS          Endpoint        `json:"rtmps"`
	RTMPSPlayback  Endpoint        `json:"rtmpsPlayback"`
	SRT            Endpoint        `json:"srt"`
	SRTPlayback    Endpoint        `json:"srtPlayback"`
	WebRTC         Endpoint        `json:"webRTC"`
	WebRTCPlayback Endpoint        `json:"webRTCPlayback"`
	Created        *time.Time      `json:"created,omitempty"`
	Modified       *time.Time      `json:"modified,omitempty"`
}

// Video is a recorded or uploaded Stream video.
type Video struct {
	UID           string         `json:"uid"`
	Thumbnail     string         `json:"thumbnail"`
	Preview       string         `json:"preview"`
	ReadyToStream bool           `json:"readyToStream"`
	Duration      float64        `json:"duration"`
	Meta          map[string]any `json:"meta,omitempty"`
	Playback      struct {
		HLS  string `json:"hls"`
		Dash string `json:"dash"`
	} `json:"playback"`
}

// Webhook is the account level notification subscription.
type Webhook struct {
	NotificationURL string     `json:"notificationUrl"`
	Modified        *time.Time `json:"modified,omitempty"`
	Secret          string     `json:"secret,omitempty"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Result   T            `json:"result"`
	Success  bool         `json:"success"`
	Errors   []apiMessage `json:"errors"`
	Messages []apiMessage `json:"messages"`
}

// DeleteVideo removes a video and its renditions.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return pkgerrors.New(pkgerrors.CodeBadUserInput, "video id is required")
	}
	_, err := c.do(ctx, http.MethodDelete, "stream/"+url.PathEscape(videoID), nil, "delete video")
	return err
}

// CreateLiveInput provisions a live input named after the publish it serves.
// Recordings are kept automatically.
func (c *Client) CreateLiveInput(ctx context.Context, publishID string) (*LiveInput, error) {
	body := map[string]any{
		"deleteRecordingAfterDays": inputRetentionDays,
		"meta":                     map[string]string{"name": publishID},
		"recording": map[string]any{
			"mode":                     recordingModeAutomatic,
			"requireSignedURLs":        false,
			"timeoutSeconds":           recordingTimeoutSeconds,
			"deleteRecordingAfterDays": recordingRetentionDays,
		},
	}
	raw, err := c.do(ctx, http.MethodPost, "stream/live_inputs", body, "create live input")
	if err != nil {
		return nil, err
	}
	var env envelope[LiveInput]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode live input")
	}
	return &env.Result, nil
}

// GetLiveInput loads a live input by uid.
func (c *Client) GetLiveInput(ctx context.Context, uid string) (*LiveInput, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadUserInput, "live input uid is required")
	}
	raw, err := c.do(ctx, http.MethodGet, "stream/live_inputs/"+url.PathEscape(uid), nil, "get live input")
	if err != nil {
		return nil, err
	}
	var env envelope[LiveInput]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode live input")
	}
	return &env.Result, nil
}

// ListLiveInputVideos lists the recordings of a live input.
func (c *Client) ListLiveInputVideos(ctx context.Context, uid string) ([]Video, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadUserInput, "live input uid is required")
	}
	raw, err := c.do(ctx, http.MethodGet, "stream/live_inputs/"+url.PathEscape(uid)+"/videos", nil, "list live input videos")
	if err != nil {
		return nil, err
	}
	var env envelope[[]Video]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode live input videos")
	}
	return env.Result, nil
}

// GetWebhook returns the configured Stream webhook.
func (c *Client) GetWebhook(ctx context.Context) (*Webhook, error) {
	raw, err := c.do(ctx, http.MethodGet, "stream/webhook", nil, "get webhook")
	if err != nil {
		return nil, err
	}
	var env envelope[Webhook]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode webhook")
	}
	return &env.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, op string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cloudflare client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+op+" request")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := fmt.Sprintf("%s/client/v4/accounts/%s/%s", c.baseURL, url.PathEscape(c.accountID), path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+op+" response")
	}
	return raw, nil
}
