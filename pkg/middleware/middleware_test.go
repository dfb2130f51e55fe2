package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/storefront/pkg/metrics"
)

func newRouter(mw ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw...)
	r.Get("/product/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("product " + chi.URLParam(r, "id")))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOpenTelemetryPassesThrough(t *testing.T) {
	var sawSpan bool
	extracted := 0
	r := chi.NewRouter()
	r.Use(OpenTelemetry(
		WithTracerName("test"),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			extracted++
			return []attribute.KeyValue{attribute.String("k", "v")}
		}),
	))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		sawSpan = SpanFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	})

	rec := serve(r, "/x")
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if !sawSpan {
		t.Error("handler saw no span")
	}
	if extracted != 1 {
		t.Errorf("extractor called %d times, want 1", extracted)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	extracted := 0
	h := newRouter(OpenTelemetry(
		WithFilter(func(r *http.Request) bool { return !strings.HasPrefix(r.URL.Path, "/product") }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			extracted++
			return nil
		}),
	))

	if rec := serve(h, "/product/1"); rec.Body.String() != "product 1" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if extracted != 0 {
		t.Errorf("filtered request was traced")
	}
	serve(h, "/boom")
	if extracted != 1 {
		t.Errorf("extractor called %d times, want 1", extracted)
	}
}

func TestPrometheus(t *testing.T) {
	m := metrics.New()
	h := newRouter(Prometheus(m))

	serve(h, "/product/1")
	serve(h, "/product/2")
	serve(h, "/boom")
	serve(h, "/missing")

	n, err := testutil.GatherAndCount(m.Registry(), "storefront_http_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	// One series each for /product/{id} 200, /boom 500 and unmatched 404.
	if n != 3 {
		t.Errorf("series = %d, want 3", n)
	}

	expected := `
# HELP storefront_http_requests_total Total number of HTTP requests by method, route and status code
# TYPE storefront_http_requests_total counter
storefront_http_requests_total{code="200",method="GET",route="/product/{id}"} 2
storefront_http_requests_total{code="404",method="GET",route="unmatched"} 1
storefront_http_requests_total{code="500",method="GET",route="/boom"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "storefront_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestPrometheusNilMetrics(t *testing.T) {
	h := newRouter(Prometheus(nil))
	if rec := serve(h, "/product/7"); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := newRouter(RequestLogger(logger))

	serve(h, "/product/3")
	serve(h, "/boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"level=INFO", "path=/product/3", "status=200", "request_id="} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("first line %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "level=ERROR") || !strings.Contains(lines[1], "status=500") {
		t.Errorf("second line = %q", lines[1])
	}
}
