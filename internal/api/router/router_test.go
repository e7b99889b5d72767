package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/tomplumbs/landing-page/internal/config"
	httpmiddleware "github.com/tomplumbs/landing-page/internal/http/middleware"
	"github.com/tomplumbs/landing-page/internal/leads"
	"github.com/tomplumbs/landing-page/pkg/logging"
	"github.com/tomplumbs/landing-page/web"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, leads.Submission) error { return nil }

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func newTestRouter(t *testing.T, limiter httpmiddleware.Limiter) http.Handler {
	t.Helper()
	return newTestRouterWith(t, limiter, nil)
}

func newTestRouterWith(t *testing.T, limiter httpmiddleware.Limiter, tweak func(*Config)) http.Handler {
	t.Helper()

	logger := logging.New("error")
	cfg := &config.Config{Env: "test", BusinessPhone: "(760) 846-0414"}
	static, err := web.Handler(fstest.MapFS{"index.html": {Data: []byte("<html>landing</html>")}})
	if err != nil {
		t.Fatalf("static handler: %v", err)
	}

	rc := &Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(cfg, noopDispatcher{}, nil, logger),
		MetricsHandler:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		StaticHandler:      static,
		CORSAllowedOrigins: []string{"*"},
		SubmitLimiter:      limiter,
		RateLimit:          httpmiddleware.RateLimitOptions{BusinessPhone: cfg.BusinessPhone},
		StartedAt:          time.Now().Add(-time.Minute),
	}
	if tweak != nil {
		tweak(rc)
	}
	return New(rc)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
	if resp.Uptime < 60 {
		t.Errorf("expected uptime of at least 60s, got %v", resp.Uptime)
	}
	if _, err := time.Parse(time.RFC3339Nano, resp.Timestamp); err != nil {
		t.Errorf("expected RFC3339 timestamp, got %q", resp.Timestamp)
	}
}

func TestRouterSubmitLeadEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	body := `{"name":"Router Test","phone":"(760) 555-0100","email":"router@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://partner.example")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://partner.example" {
		t.Fatalf("expected CORS header, got %q", got)
	}
	if rr.Header().Get(httpmiddleware.RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterSubmitLeadRateLimited(t *testing.T) {
	router := newTestRouter(t, denyAll{})

	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}

	// Only the submit endpoint is limited.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /api/test to bypass limiter, got %d", rr.Code)
	}
}

func TestRouterAPIEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/api/test", "/api/validation-rules", "/metrics"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
	}
}

func TestRouterPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/submit-lead", nil)
	req.Header.Set("Origin", "https://partner.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
}

func TestRouterServesLandingPage(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/", "/water-heaters/spring-offer"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "landing") {
			t.Fatalf("%s: expected index page, got %q", path, rr.Body.String())
		}
	}
}

func postLeadFrom(router http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr.Code
}

func TestRouterRateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(1, 1)
	defer limiter.Close()
	router := newTestRouter(t, limiter)

	limited := 0
	for i := 0; i < 20; i++ {
		if postLeadFrom(router, "203.0.113.7:4242", fmt.Sprintf("10.0.0.%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 19 {
		t.Fatalf("expected 19 of 20 rotating-header requests to be limited, got %d", limited)
	}
}

func TestRouterRateLimitTrustsForwardedHeadersWhenEnabled(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(1, 1)
	defer limiter.Close()
	router := newTestRouterWith(t, limiter, func(c *Config) { c.TrustProxyHeaders = true })

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		if code := postLeadFrom(router, "10.0.0.1:4242", client); code == http.StatusTooManyRequests {
			t.Fatalf("client %s behind trusted proxy should have its own bucket", client)
		}
	}
	if code := postLeadFrom(router, "10.0.0.1:4242", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected repeat client to be limited, got %d", code)
	}
}

func TestRouterUnknownAPIPathServesLandingPage(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "landing") {
		t.Fatalf("expected index page for unknown api path, got %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown api POST, got %d", rr.Code)
	}
}
