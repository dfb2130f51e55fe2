package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/storefront"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func storefrontPage(ctx context.Context, url string) (string, error) {
	return storefront.RenderPage(ctx, storefront.Options{
		Options: app.Options{URL: url, Logger: quietLogger},
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger))
	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServePage(t *testing.T) {
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger))

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"<!DOCTYPE html>", `<div id="root">`, `class="product-card"`, "<title>Storefront</title>"}},
		{"/?category1=Living%2FHealth", []string{`id="products-grid"`}},
		{"/product/85067212996", []string{"product-detail-title"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestServePageStatus(t *testing.T) {
	tests := []struct {
		name string
		page PageFunc
		want int
	}{
		{"no route", func(context.Context, string) (string, error) { return "", nil }, http.StatusNotFound},
		{"timeout", func(context.Context, string) (string, error) {
			return "", apperrors.New("E400").Wrap(context.DeadlineExceeded)
		}, http.StatusGatewayTimeout},
		{"failure", func(context.Context, string) (string, error) {
			return "", errors.New("boom")
		}, http.StatusInternalServerError},
		{"panic", func(context.Context, string) (string, error) { panic("boom") }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(DefaultConfig(), tt.page, WithLogger(quietLogger))
			if rec := get(t, s, "/anything"); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPageURLAndDeadline(t *testing.T) {
	config := DefaultConfig()
	config.RenderTimeout = time.Second
	var gotURL string
	var hasDeadline bool
	s := New(config, func(ctx context.Context, url string) (string, error) {
		gotURL = url
		_, hasDeadline = ctx.Deadline()
		return "<p>hi</p>", nil
	}, WithLogger(quietLogger))

	req := httptest.NewRequest(http.MethodGet, "/product/1?x=2", nil)
	req.Host = "shop.example"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if gotURL != "http://shop.example/product/1?x=2" {
		t.Errorf("url = %q", gotURL)
	}
	if !hasDeadline {
		t.Error("page context has no deadline")
	}
	if !strings.Contains(rec.Body.String(), "<p>hi</p>") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger), WithMetrics(m))

	get(t, s, "/")
	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	want := `storefront_http_requests_total{code="200",method="GET",route="/*"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics missing %q", want)
	}

	// Without metrics the path falls through to the page route.
	plain := New(DefaultConfig(), func(context.Context, string) (string, error) { return "", nil }, WithLogger(quietLogger))
	if rec := get(t, plain, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("status without metrics = %d, want 404", rec.Code)
	}
}

type fakeLive struct {
	served   atomic.Int32
	shutdown atomic.Int32
}

func (f *fakeLive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.served.Add(1)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (f *fakeLive) Shutdown(context.Context) error {
	f.shutdown.Add(1)
	return nil
}

func TestLiveMounted(t *testing.T) {
	live := &fakeLive{}
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger), WithLive(live))
	get(t, s, "/live?path=/")
	if live.served.Load() != 1 {
		t.Errorf("live served %d times, want 1", live.served.Load())
	}
}

func TestRunAndShutdown(t *testing.T) {
	live := &fakeLive{}
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger), WithLive(live))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	defer client.CloseIdleConnections()
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if live.shutdown.Load() != 1 {
		t.Errorf("live shutdown %d times, want 1", live.shutdown.Load())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"no address", func(c *Config) { c.Address = "" }, false},
		{"zero render timeout", func(c *Config) { c.RenderTimeout = 0 }, false},
		{"no root", func(c *Config) { c.RootID = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	c := DefaultConfig()
	c.Address = ""
	s := New(c, storefrontPage, WithLogger(quietLogger))
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run with empty address succeeded")
	}
}

func TestCanonicalRedirect(t *testing.T) {
	s := New(DefaultConfig(), storefrontPage, WithLogger(quietLogger))

	tests := []struct {
		path     string
		code     int
		location string
	}{
		{"/product//85067212996/", http.StatusPermanentRedirect, "/product/85067212996"},
		{"/product/./85067212996?x=1", http.StatusPermanentRedirect, "/product/85067212996?x=1"},
		{"/../etc/passwd", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}

	// The health probe is not subject to page canonicalization.
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
}
