package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipstream-backend/api/controllers"
	"github.com/angelmondragon/clipstream-backend/internal/accounts"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/reports"
	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubReports struct {
	calls []reports.ReportInput
	creds []authenticity.Credentials
}

func (s *stubReports) ReportPublish(ctx context.Context, input reports.ReportInput) error {
	s.calls = append(s.calls, input)
	s.creds = append(s.creds, authenticity.CredentialsFromContext(ctx))
	return nil
}

type stubAccounts struct {
	created int
}

func (s *stubAccounts) GetMyAccount(context.Context, accounts.AccountTypeInput) (*accounts.AccountDTO, error) {
	return nil, nil
}

func (s *stubAccounts) GetBalance(context.Context, accounts.BalanceInput) (string, error) {
	return "1.5", nil
}

func (s *stubAccounts) CreateAccount(_ context.Context, input accounts.AccountTypeInput) (*accounts.AccountDTO, error) {
	s.created++
	return &accounts.AccountDTO{Owner: "0xabc", Type: input.AccountType}, nil
}

func (s *stubAccounts) CacheSession(context.Context, accounts.CacheSessionInput) error {
	return nil
}

func (s *stubAccounts) ValidateAuth(context.Context, accounts.ValidateAuthInput) accounts.ValidateAuthResult {
	return accounts.ValidateAuthResult{}
}

type memoryLimiter struct {
	counts map[string]int64
}

func (m *memoryLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: "*"},
		RateLimit: config.RateLimitConfig{
			CreateAccountWindow: time.Minute,
			CreateAccountLimit:  1,
			CountViewsWindow:    time.Minute,
			CountViewsLimit:     5,
		},
	}
}

func newTestRouter(t *testing.T, svcs Services) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	deps := Dependencies{
		Pingers:     map[string]controllers.Pinger{"db": stubPinger{}},
		RateLimiter: &memoryLimiter{counts: map[string]int64{}},
		Metrics:     metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(testConfig(), logg, deps, svcs), reg
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.1.1:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "", nil).Code)
	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "", nil).Code)

	rec := do(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestOperationCarriesCredentials(t *testing.T) {
	svc := &stubReports{}
	router, _ := newTestRouter(t, Services{Reports: svc})

	body := `{"owner":"0xabc","accountId":"` + uuid.NewString() + `","profileId":"` + uuid.NewString() +
		`","publishId":"` + uuid.NewString() + `","reason":"` + string(enums.ReportReasonSpam) + `"}`
	rec := do(router, http.MethodPost, "/graphql/reportPublish", body, map[string]string{
		"Authorization":         "Bearer token-1",
		"auth-wallet-signature": "0xsig",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"data":{"status":"Ok"}}`, rec.Body.String())
	require.Len(t, svc.calls, 1)
	require.Equal(t, "token-1", svc.creds[0].IDToken)
	require.Equal(t, "0xsig", svc.creds[0].WalletSignature)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUnknownOperationIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t, Services{Reports: &stubReports{}})
	rec := do(router, http.MethodPost, "/graphql/doesNotExist", `{}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAccountIsRateLimited(t *testing.T) {
	svc := &stubAccounts{}
	router, _ := newTestRouter(t, Services{Accounts: svc})

	first := do(router, http.MethodPost, "/graphql/createAccount", `{"accountType":"WALLET"}`, nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := do(router, http.MethodPost, "/graphql/createAccount", `{"accountType":"WALLET"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, 1, svc.created)

	balance := do(router, http.MethodPost, "/graphql/getBalance", `{"address":"0xabc"}`, nil)
	require.JSONEq(t, `{"data":"1.5"}`, balance.Body.String())
}
