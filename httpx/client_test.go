package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/urlguard/config"
)

// loopbackConfig permits dialing test servers on the loopback range.
func loopbackConfig() config.SecurityConfig {
	cfg := config.Default()
	cfg.AllowLoopback = true
	return cfg
}

// newLoopbackServer starts a test server on 127.0.0.2. The canonical
// 127.0.0.1 literal is reserved and never allowed, so allowed-path tests
// need a different loopback address.
func newLoopbackServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.2:0")
	if err != nil {
		t.Skipf("cannot bind 127.0.0.2: %v", err)
	}
	srv := httptest.NewUnstartedServer(handler)
	_ = srv.Listener.Close()
	srv.Listener = l
	srv.Start()
	return srv
}

func TestNewTransportClientDefaults(t *testing.T) {
	c := NewTransportClient(0)
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	c = NewTransportClient(10 * defaultClientTimeout)
	assert.Equal(t, 10*defaultClientTimeout, c.Timeout)
}

func TestClientGetAllowed(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClientGetDeniedByPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached for a denied URL")
	}))
	defer srv.Close()

	// httptest binds 127.0.0.1, which is reserved: never dialed.
	c := NewStaticClient(loopbackConfig())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "is blocked")
}

func TestClientGetDeniedScheme(t *testing.T) {
	c := NewStaticClient(loopbackConfig())
	_, err := c.Get(context.Background(), "ftp://example.com/file")
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "Protocol 'ftp:' not allowed")
}

func TestClientRejectsCredentialURLs(t *testing.T) {
	var reached bool
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())
	_, err := c.Get(context.Background(), strings.Replace(srv.URL, "http://", "http://u:p@", 1))
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "credentials")
	assert.False(t, reached)
}

func TestClientRedirectToMetadataDenied(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "Redirect to unsafe URL")
}

func TestClientRelativeRedirectFollowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "landed")
	})
	srv := newLoopbackServer(t, mux)
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())
	resp, err := c.Get(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "landed", string(body))
}

func TestClientRedirectHopBudget(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every response redirects one level deeper; only the hop budget
		// stops the chain.
		http.Redirect(w, r, r.URL.Path+"/hop", http.StatusFound)
	}))
	defer srv.Close()

	cfg := loopbackConfig()
	cfg.MaxRedirects = 2
	c := NewStaticClient(cfg)

	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestClientDo(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, "http://localhost/x", nil)
	require.NoError(t, err)
	_, err = c.Do(req)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "is blocked")
}

func TestClientDoDoesNotMutateRequest(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	originalURL := req.URL

	resp, err := c.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Same(t, originalURL, req.URL, "Do must not swap the caller's URL")
}

func TestClientFollowsPolicySource(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := config.NewHolder(config.Default(), "")
	c := NewClient(h.Get)

	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err, "loopback must be denied before the policy swap")

	next := config.Default()
	next.AllowLoopback = true
	_, err = h.Swap(next)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestDeniedErrorMessageIsSanitized(t *testing.T) {
	c := NewStaticClient(config.Default())
	_, err := c.Get(context.Background(), "http://u:p@127.0.0.1/x")
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.NotContains(t, denied.Error(), "u:p@")
}

func TestDeniedErrorUnwrapsThroughURLError(t *testing.T) {
	srv := newLoopbackServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://localhost/evil", http.StatusFound)
	}))
	defer srv.Close()

	c := NewStaticClient(loopbackConfig())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	// http.Client wraps CheckRedirect failures in *url.Error.
	var denied *DeniedError
	assert.True(t, errors.As(err, &denied), "err = %v", err)
}
