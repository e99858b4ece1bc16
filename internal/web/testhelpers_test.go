package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap/zaptest"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow() bool {
	return s.allow
}

const fallbackHTML = `<!DOCTYPE html><html><body><div id="root"></div></body></html>`

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":       {Data: []byte(fallbackHTML)},
		"js/app.js":        {Data: []byte("console.log('app');")},
		"css/site.css":     {Data: []byte(strings.Repeat("body { margin: 0; }\n", 200))},
		"css/site.css.br":  {Data: []byte("precompressed")},
		"img/logo.png":     {Data: []byte{0x89, 'P', 'N', 'G'}},
		"docs/readme.txt":  {Data: []byte("docs")},
		"Home/Index":       {Data: []byte("shadow")},
		"assets/empty.txt": {Data: []byte("")},
	}
}

// testRoutes registers a Home controller whose actions can be told to fail.
func testRoutes() *Routes {
	rt := NewRoutes()
	rt.Register(Controller{
		Name: "Home",
		Actions: map[string]Action{
			"Index": func(w http.ResponseWriter, _ *http.Request) error {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("home index"))
				return nil
			},
			"Error": func(w http.ResponseWriter, _ *http.Request) error {
				_, _ = w.Write([]byte("generic error page"))
				return nil
			},
			"Boom": func(http.ResponseWriter, *http.Request) error {
				panic(errors.New("kaboom"))
			},
			"Fail": func(http.ResponseWriter, *http.Request) error {
				return errors.New("action failed")
			},
			"Partial": func(w http.ResponseWriter, _ *http.Request) error {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("partial"))
				return errors.New("late failure")
			},
			"Detail": func(w http.ResponseWriter, r *http.Request) error {
				_, _ = w.Write([]byte("id=" + RouteID(r)))
				return nil
			},
		},
	})
	rt.Handle("health", http.MethodGet, "/api/health", Health("active", nil))
	return rt
}

func newTestPipeline(t *testing.T, development bool, opts ...PipelineOption) http.Handler {
	t.Helper()

	assets := testAssets()
	doc, err := LoadFallback(assets, "index.html")
	if err != nil {
		t.Fatalf("LoadFallback returned error: %v", err)
	}

	opts = append([]PipelineOption{WithLogging(false), WithRateLimit(0, 0)}, opts...)
	stages := BuildPipeline(development, Components{
		Assets:   assets,
		Routes:   testRoutes(),
		Fallback: doc,
	}, zaptest.NewLogger(t), opts...)

	handler, err := Assemble(stages...)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	return handler
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodGet, target, headers...)
}

func do(t *testing.T, h http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
