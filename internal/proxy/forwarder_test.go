package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/reward-auth/internal/metrics"
)

type captured struct {
	method, path, query, contentType, identity string
	escapedPath, body                          string
}

func newDownstream(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = captured{
			method:      r.Method,
			path:        r.URL.Path,
			escapedPath: r.URL.EscapedPath(),
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			identity:    r.Header.Get("X-Auth-Identity"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Downstream", "event")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewForwarder_RejectsBadURL(t *testing.T) {
	_, err := NewForwarder("localhost:8002", time.Second)
	assert.Error(t, err)

	_, err = NewForwarder("http://event:8002/", time.Second)
	assert.NoError(t, err)
}

func TestForwarder_RelaysBodyAndResponse(t *testing.T) {
	srv, got := newDownstream(t, http.StatusCreated, `{"ok":true}`)
	f, err := NewForwarder(srv.URL+"/", time.Second)
	require.NoError(t, err)

	body := []byte(`{"name":"spring","reward":3,"status":true,"eventType":"login","identity":"alice"}`)
	resp, err := f.Forward(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/admin/event",
		Body:   body,
		Header: http.Header{"X-Auth-Identity": []string{"alice"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/admin/event", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "alice", got.identity)
	assert.JSONEq(t, string(body), got.body)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "event", resp.Header.Get("X-Downstream"))
}

func TestForwarder_PassesErrorStatusThrough(t *testing.T) {
	srv, got := newDownstream(t, http.StatusBadRequest, `{"message":"event closed"}`)
	f, err := NewForwarder(srv.URL, time.Second)
	require.NoError(t, err)

	resp, err := f.Forward(context.Background(), Request{
		Method:   http.MethodGet,
		Path:     "/request/history/alice",
		RawQuery: "page=2",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `{"message":"event closed"}`, string(resp.Body))
	assert.Equal(t, "/request/history/alice", got.path)
	assert.Equal(t, "page=2", got.query)
	assert.Empty(t, got.body)
}

func TestForwarder_KeepsEscapedSegments(t *testing.T) {
	srv, got := newDownstream(t, http.StatusOK, `[]`)
	f, err := NewForwarder(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = f.Forward(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/request/history/x%2F..%2F..%2Fadmin%2Frequest%2Fhistory",
	})
	require.NoError(t, err)
	assert.Equal(t, "/request/history/x%2F..%2F..%2Fadmin%2Frequest%2Fhistory", got.escapedPath)
	assert.Equal(t, "/request/history/x/../../admin/request/history", got.path)
}

func TestForwarder_RelaysRedirects(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Redirect(w, r, "/admin/request/history", http.StatusMovedPermanently)
	}))
	t.Cleanup(srv.Close)
	f, err := NewForwarder(srv.URL, time.Second)
	require.NoError(t, err)

	resp, err := f.Forward(context.Background(), Request{Method: http.MethodGet, Path: "/request/history/alice"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/admin/request/history", resp.Header.Get("Location"))
	assert.Equal(t, 1, hits)
}

func TestForwarder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	f, err := NewForwarder(url, time.Second, WithMetrics(m))
	require.NoError(t, err)

	_, err = f.Forward(context.Background(), Request{Method: http.MethodGet, Path: "/event", Label: "GET /event"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestForwarder_RecordsMetrics(t *testing.T) {
	srv, _ := newDownstream(t, http.StatusOK, `[]`)
	reg := prometheus.NewRegistry()
	f, err := NewForwarder(srv.URL, time.Second, WithMetrics(metrics.New(reg)))
	require.NoError(t, err)

	_, err = f.Forward(context.Background(), Request{Method: http.MethodGet, Path: "/reward", Label: "GET /reward"})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "reward_auth_forwarded_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRoutes_Table(t *testing.T) {
	assert.Len(t, Routes, 10)
	seen := map[string]bool{}
	for _, r := range Routes {
		assert.False(t, seen[r.Pattern()], "duplicate pattern %s", r.Pattern())
		seen[r.Pattern()] = true
		if r.HasBody {
			assert.Contains(t, []string{http.MethodPost, http.MethodPatch}, r.Method, r.Name)
		}
	}
	assert.True(t, seen["GET /request/history/{identity}"])
	assert.True(t, seen["PATCH /admin/event"])
}
