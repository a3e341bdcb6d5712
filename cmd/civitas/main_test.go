package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitas/internal/platform/config"
	"civitas/internal/platform/metrics"
	authmw "civitas/pkg/platform/middleware/auth"
	"civitas/pkg/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRulesCommand(t *testing.T) {
	t.Run("default table", func(t *testing.T) {
		out, err := runCLI(t, "rules")
		require.NoError(t, err)
		assert.Contains(t, out, "9 rule(s) valid")
		assert.Contains(t, out, "SOVEREIGN_ONLY")
	})

	t.Run("proposable for a rank", func(t *testing.T) {
		out, err := runCLI(t, "rules", "--governance", "monarchy", "--rank", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "may propose nothing under MONARCHY")

		out, err = runCLI(t, "rules", "--governance", "DEMOCRACY", "--rank", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "DECLARE_WAR")
		assert.Contains(t, out, "NAME_SUCCESSOR")
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: [{"), 0o600))
		_, err := runCLI(t, "rules", "--rules", path)
		require.Error(t, err)
	})
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")
	out, err := runCLI(t, "token", "king", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := authmw.NewHS256Validator("cli-test-key", "").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "king", claims.Actor())
}

func TestMigrateRequiresDatabase(t *testing.T) {
	_, err := runCLI(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

type testStack struct {
	app       *app
	router    http.Handler
	validator *authmw.HS256Validator
}

func newTestStack(t *testing.T, seed string) *testStack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	cfg.Database.URL = ""
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil
	cfg.Server.AdminToken = "ops"

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger, appOptions{})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seed), 0o600))
	require.NoError(t, applySeed(ctx, a, seedPath))

	validator := authmw.NewHS256Validator(cfg.Server.JWTSigningKey, "")
	reg := prometheus.NewRegistry()
	router := newRouter(routerDeps{
		service:     a.service,
		health:      func(r *http.Request) error { return a.Health(r.Context()) },
		validator:   validator,
		adminToken:  cfg.Server.AdminToken,
		limiter:     a.limiter,
		httpMetrics: metrics.NewWithRegistry(reg, reg),
		logger:      logger,
	})
	return &testStack{app: a, router: router, validator: validator}
}

// as sends req authenticated as actor.
func (s *testStack) as(t *testing.T, actor string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	token, err := s.validator.IssueToken(actor, time.Minute)
	require.NoError(t, err)
	return testutil.DoRequest(s.router, testutil.WithBearer(req, token))
}

const monarchySeed = `
communities:
  - id: north
    governance: MONARCHY
    leader: king
    members: {king: 0, duke: 1}
  - id: south
    governance: DEMOCRACY
    members: {citizen: 0}
`

func TestServeStack_InMemory(t *testing.T) {
	st := newTestStack(t, monarchySeed)
	warBody := map[string]any{"law_kind": "DECLARE_WAR", "metadata": map[string]string{"targetCommunityId": "south"}}

	rr := testutil.DoRequest(st.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(st.router, testutil.NewJSONRequest(t, http.MethodPost, "/communities/north/proposals", warBody))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = st.as(t, "king", testutil.NewJSONRequest(t, http.MethodPost, "/communities/north/proposals", warBody))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
	created := testutil.UnmarshalResponse[map[string]any](t, rr)
	proposalID, _ := (*created)["id"].(string)
	require.NotEmpty(t, proposalID)

	rr = st.as(t, "duke", testutil.NewRequest(t, http.MethodPost, "/proposals/"+proposalID+"/fast-track"))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "insufficient_rank")

	rr = st.as(t, "king", testutil.NewRequest(t, http.MethodPost, "/proposals/"+proposalID+"/fast-track"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "passed")
	testutil.AssertJSONContains(t, rr, "execution_state", "succeeded")

	rr = testutil.DoRequest(st.router, testutil.NewRequest(t, http.MethodPost, "/admin/resolve"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	req := testutil.NewRequest(t, http.MethodPost, "/admin/resolve")
	req.Header.Set("X-Admin-Token", "ops")
	rr = testutil.DoRequest(st.router, req)
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "resolved", 0.0)

	rr = testutil.DoRequest(st.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.Contains(t, rr.Body.String(), "civitas_http_requests_total")
}
