package uploadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/clipstream-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

const (
	idTokenHeader              = "id-token"
	requestBodyReadLimit int64 = 1024
	defaultTimeout             = 15 * time.Second
)

// Client removes stored media through the private upload service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     auth.TokenSource
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

// WithTokenSource attaches a service identity token to every call.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// NewClient builds an upload service client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("upload service base url is required")
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// DeleteVideo removes the stored video files of a publish.
func (c *Client) DeleteVideo(ctx context.Context, idToken, ref, publishID, videoID string) error {
	body := map[string]string{"ref": ref, "publishId": publishID}
	if videoID != "" {
		body["videoId"] = videoID
	}
	return c.delete(ctx, "upload/video", idToken, body)
}

// DeleteImage removes a stored image.
func (c *Client) DeleteImage(ctx context.Context, idToken, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	return c.delete(ctx, "upload/image", idToken, map[string]string{"ref": ref})
}

func (c *Client) delete(ctx context.Context, path, idToken string, body any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upload client not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal upload request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upload request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idTokenHeader, idToken)
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx, c.baseURL)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint upload service token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upload request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("upload request %s failed", path))
	}
	return nil
}
