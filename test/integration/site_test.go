package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/hotel-showcase/internal/application"
	"github.com/eugenenazirov/hotel-showcase/internal/config"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to locate test file")
	}
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func newServer(t *testing.T, settings map[string]string) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		Port:              "0",
		Environment:       "Production",
		StaticDir:         filepath.Join(repoRoot(t), "web", "wwwroot"),
		FallbackFile:      "index.html",
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		Settings:          settings,
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, srv *httptest.Server, path string, headers map[string]string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "br" {
		body = brotli.NewReader(resp.Body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func TestSiteWithActiveTestimonials(t *testing.T) {
	srv := newServer(t, map[string]string{"API_URL": "https://api.example.com"})

	resp, body := fetch(t, srv, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "SmartHotel360") || !strings.Contains(body, "sh-testimonials") {
		t.Fatalf("expected landing page with testimonials")
	}

	resp, body = fetch(t, srv, "/Home/Testimonials", nil)
	var items []map[string]any
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		t.Fatalf("decode testimonials: %v", err)
	}
	if resp.StatusCode != http.StatusOK || len(items) == 0 {
		t.Fatalf("expected testimonials, got %d items (status %d)", len(items), resp.StatusCode)
	}
	for _, item := range items {
		if rating, _ := item["rating"].(float64); rating < 4 {
			t.Fatalf("expected only positive testimonials, got rating %v", item["rating"])
		}
	}
}

func TestSiteWithNullTestimonials(t *testing.T) {
	srv := newServer(t, map[string]string{
		"API_URL":                       "https://api.example.com",
		"USE_NULL_TESTIMONIALS_SERVICE": "1",
	})

	_, body := fetch(t, srv, "/Home/Testimonials", nil)
	if strings.TrimSpace(body) != "[]" {
		t.Fatalf("expected empty testimonials, got %q", body)
	}

	resp, body := fetch(t, srv, "/", nil)
	if resp.StatusCode != http.StatusOK || strings.Contains(body, "sh-testimonials") {
		t.Fatalf("expected landing page without testimonials, got %d", resp.StatusCode)
	}
}

func TestSiteFallbackAndAssets(t *testing.T) {
	srv := newServer(t, map[string]string{"API_URL": "https://api.example.com"})

	resp, body := fetch(t, srv, "/RoomDetail/1", map[string]string{"Accept-Encoding": "br"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for client route, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Encoding") != "br" || !strings.Contains(body, `id="root"`) {
		t.Fatalf("expected brotli fallback document, got encoding %q", resp.Header.Get("Content-Encoding"))
	}

	resp, body = fetch(t, srv, "/js/app.js", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "window.settings") {
		t.Fatalf("expected script asset, got %d", resp.StatusCode)
	}

	resp, _ = fetch(t, srv, "/Home/Error", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected error page with request id, got %d", resp.StatusCode)
	}
}
