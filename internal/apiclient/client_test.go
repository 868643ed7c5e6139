package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/server"
)

// newWizardServer starts an in-memory topology server and returns a client
// for its API.
func newWizardServer(t *testing.T) *Client {
	t.Helper()
	srv, err := server.New(&server.Config{})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL + "/api/")
	c.SetRetry(0, time.Millisecond)
	return c
}

func sampleAnswers() *baseconfig.BaseConfig {
	bc := baseconfig.New()
	bc.ServerName = "example.com"
	bc.ReportStats = true
	bc.Delegation = flow.DelegationWellKnown
	bc.DelegationServerName = "synapse.example.com"
	bc.TLS = flow.TLSReverseProxy
	bc.ReverseProxy = baseconfig.ProxyCaddy
	bc.Database = baseconfig.DatabasePostgres
	return bc
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://192.168.1.20:8888/api/")

	assert.Equal(t, "http://192.168.1.20:8888/api", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.HTTPClient.Timeout)
	assert.Equal(t, DefaultMaxRetries, c.MaxRetries)

	c.SetTimeout(2 * time.Second)
	c.SetRetry(5, time.Second)
	assert.Equal(t, 2*time.Second, c.HTTPClient.Timeout)
	assert.Equal(t, 5, c.MaxRetries)
	assert.Equal(t, time.Second, c.RetryDelay)
}

func TestPing(t *testing.T) {
	c := newWizardServer(t)

	h, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.NotEmpty(t, h.Version)
}

func TestNavigate(t *testing.T) {
	c := newWizardServer(t)
	ctx := context.Background()

	st, err := c.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenIntro, st.Screen)

	st, err = c.Navigate(ctx, flow.Advance())
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenServerName, st.Screen)

	// the server refuses to leave server-name without an answer
	_, err = c.Navigate(ctx, flow.Advance())
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "server_name", apiErr.Field)
	assert.Contains(t, GetTroubleshootingHint(err), "server_name")

	st, err = c.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenIntro, st.Screen)
}

func TestPush(t *testing.T) {
	c := newWizardServer(t)
	ctx := context.Background()
	answers := sampleAnswers()

	result, err := c.Push(ctx, answers)
	require.NoError(t, err)
	assert.False(t, result.RolledBack)
	assert.Empty(t, result.Mismatches)
	assert.Equal(t, answers.ServerName, result.State.Answers.ServerName)
	assert.Equal(t, answers.Context(), result.State.Context, "context follows the answers")

	yaml, err := c.Render(ctx, RenderHomeserver)
	require.NoError(t, err)
	assert.Contains(t, string(yaml), "example.com")

	proxy, err := c.Render(ctx, RenderReverseProxy)
	require.NoError(t, err)
	assert.Contains(t, string(proxy), "synapse.example.com")

	_, err = c.Render(ctx, "apache")
	assert.Error(t, err)
}

func TestPush_RejectedAnswers(t *testing.T) {
	c := newWizardServer(t)

	bad := sampleAnswers()
	bad.Database = "oracle"

	_, err := c.Push(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, IsRejected(err))
}

func TestPush_RollsBackWhenAnswersDoNotStick(t *testing.T) {
	original := baseconfig.New()
	original.ServerName = "old.example.com"

	var puts int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			atomic.AddInt32(&puts, 1)
		}
		// a server that accepts updates but never applies them
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(server.StateResponse{Screen: flow.ScreenIntro, Answers: original})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetRetry(0, time.Millisecond)

	result, err := c.Push(context.Background(), sampleAnswers())
	require.Error(t, err)
	assert.True(t, IsVerificationError(err))
	require.NotNil(t, result)
	assert.True(t, result.RolledBack)
	assert.Contains(t, strings.Join(result.Mismatches, "\n"), "server_name: expected example.com, got old.example.com")
	assert.Equal(t, int32(2), atomic.LoadInt32(&puts), "push then restore")
}

func TestRetry_ServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","version":"test","clients":0}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetRetry(3, time.Millisecond)

	h, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", h.Version)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetry_NotForClientErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetRetry(3, time.Millisecond)

	_, err := c.GetState(context.Background())
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "Server error (HTTP 404)", GetShortErrorMessage(err))
	assert.Contains(t, GetTroubleshootingHint(err), "/api")
}

func TestParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not the wizard</html>"))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).GetState(context.Background())
	require.Error(t, err)
	typ, ok := typeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeParse, typ)
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url)
	c.SetRetry(0, time.Millisecond)

	_, err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Contains(t, GetTroubleshootingHint(err), "topology-cfg scan")
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetRetry(10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Ping(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiffAnswers(t *testing.T) {
	want := sampleAnswers()

	diffs, err := DiffAnswers(want, want.Clone())
	require.NoError(t, err)
	assert.Empty(t, diffs)

	got := want.Clone()
	got.ReverseProxy = baseconfig.ProxyNginx
	got.DelegationServerName = ""
	diffs, err = DiffAnswers(want, got)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"delegation_server_name: expected synapse.example.com, got (unset)",
		"reverse_proxy: expected caddy, got nginx",
	}, diffs)

	// unset optional answers are not compared
	sparse := baseconfig.New()
	sparse.ServerName = want.ServerName
	sparse.ReportStats = want.ReportStats
	sparse.FederationPort = want.FederationPort
	sparse.ClientPort = want.ClientPort
	sparse.Database = want.Database
	diffs, err = DiffAnswers(sparse, want)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRetryable(NewHTTPError(http.StatusBadGateway, "bad gateway")))
	assert.False(t, IsRetryable(NewHTTPError(http.StatusBadRequest, "bad request")))
	assert.False(t, IsRetryable(NewParseError("bad json", nil)))
	assert.False(t, IsRetryable(assert.AnError))

	err := NewRejectedError(http.StatusBadRequest, "unknown tls type", "")
	assert.Equal(t, "unknown tls type", GetShortErrorMessage(err))
	assert.Equal(t, "Rejected: unknown tls type", err.Error())
}
