package walletapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type staticTokens string

func (s staticTokens) Token(context.Context, string) (string, error) {
	return string(s), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://wallet.test/", WithHTTPClient(&http.Client{Transport: rt}), WithTokenSource(staticTokens("svc-token")))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestVerifyUserSendsHeaders(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"uid":"firebase-uid"}`), nil
	})

	uid, err := client.VerifyUser(context.Background(), "user-id-token")
	if err != nil {
		t.Fatalf("verify user: %v", err)
	}
	if uid != "firebase-uid" {
		t.Fatalf("unexpected uid %q", uid)
	}
	if captured.URL.String() != "http://wallet.test/auth/verify" {
		t.Fatalf("unexpected url %s", captured.URL)
	}
	if captured.Header.Get(IDTokenHeader) != "user-id-token" {
		t.Fatalf("id token header missing")
	}
	if captured.Header.Get("Authorization") != "Bearer svc-token" {
		t.Fatalf("service token missing, got %q", captured.Header.Get("Authorization"))
	}
}

func TestVerifyUserRejected(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, "expired token"), nil
	})

	_, err := client.VerifyUser(context.Background(), "bad")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestSendTipsPostsBody(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/wallet/tips/send" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["to"] != "0xbbb" || body["qty"] != float64(3) {
			t.Fatalf("unexpected body %v", body)
		}
		return jsonResponse(http.StatusOK, `{"result":{"from":"0xaaa","to":"0xbbb","amount":"1.5","fee":"0.01"}}`), nil
	})

	result, err := client.SendTips(context.Background(), "tok", "0xbbb", 3)
	if err != nil {
		t.Fatalf("send tips: %v", err)
	}
	if result.From != "0xaaa" || result.Amount != "1.5" || result.Fee != "0.01" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGetBalanceEscapesAddress(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.EscapedPath() != "/wallet/balance/0xabc%2Fx" {
			t.Fatalf("unexpected path %s", req.URL.EscapedPath())
		}
		return jsonResponse(http.StatusOK, `{"balance":"42.0"}`), nil
	})

	balance, err := client.GetBalance(context.Background(), "tok", "0xabc/x")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != "42.0" {
		t.Fatalf("unexpected balance %q", balance)
	}
}

func TestServerErrorIsDependency(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream"), nil
	})
	_, err := client.CreateWallet(context.Background(), "tok")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected base url error")
	}
}
