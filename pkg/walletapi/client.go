package walletapi

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

	"github.com/angelmondragon/clipstream-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

const (
	// IDTokenHeader carries the end user's identity token to the wallet service.
	IDTokenHeader = "id-token"

	requestBodyReadLimit int64 = 1024
	defaultTimeout             = 15 * time.Second
)

// Client talks to the private wallet service that owns identity and custody.
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

// NewClient builds a wallet service client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("wallet service base url is required")
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

// Wallet is the address bound to an identity.
type Wallet struct {
	Address string `json:"address"`
	UID     string `json:"uid"`
}

// TipResult is the settled transfer returned by SendTips.
type TipResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

// VerifyUser resolves the uid behind idToken.
func (c *Client) VerifyUser(ctx context.Context, idToken string) (string, error) {
	var out struct {
		UID string `json:"uid"`
	}
	if err := c.do(ctx, http.MethodGet, "auth/verify", idToken, nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.UID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthenticated, "identity verification returned no uid")
	}
	return out.UID, nil
}

// GetWalletAddress returns the wallet of a TRADITIONAL account holder.
func (c *Client) GetWalletAddress(ctx context.Context, idToken string) (Wallet, error) {
	var out Wallet
	err := c.do(ctx, http.MethodGet, "wallet/address", idToken, nil, &out)
	return out, err
}

// CreateWallet provisions a custodial wallet for the identity behind idToken.
func (c *Client) CreateWallet(ctx context.Context, idToken string) (Wallet, error) {
	var out Wallet
	err := c.do(ctx, http.MethodPost, "wallet/create", idToken, nil, &out)
	return out, err
}

// GetBalance returns the balance of address as a decimal string.
func (c *Client) GetBalance(ctx context.Context, idToken, address string) (string, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	path := "wallet/balance/" + url.PathEscape(address)
	if err := c.do(ctx, http.MethodGet, path, idToken, nil, &out); err != nil {
		return "", err
	}
	return out.Balance, nil
}

// CalculateTips converts a USD quantity into the native token amount.
func (c *Client) CalculateTips(ctx context.Context, idToken string, qty int) (string, error) {
	var out struct {
		Tips string `json:"tips"`
	}
	body := map[string]any{"qty": qty}
	if err := c.do(ctx, http.MethodPost, "wallet/tips/calculate", idToken, body, &out); err != nil {
		return "", err
	}
	return out.Tips, nil
}

// SendTips transfers qty USD worth of tokens to the address to.
func (c *Client) SendTips(ctx context.Context, idToken, to string, qty int) (TipResult, error) {
	var out struct {
		Result TipResult `json:"result"`
	}
	body := map[string]any{"to": to, "qty": qty}
	if err := c.do(ctx, http.MethodPost, "wallet/tips/send", idToken, body, &out); err != nil {
		return TipResult{}, err
	}
	return out.Result, nil
}

func (c *Client) do(ctx context.Context, method, path, idToken string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "wallet client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal wallet request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build wallet request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(IDTokenHeader, idToken)
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx, c.baseURL)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint wallet service token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute wallet request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, cause, "wallet service rejected identity")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("wallet request %s failed", path))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode wallet response")
	}
	return nil
}
