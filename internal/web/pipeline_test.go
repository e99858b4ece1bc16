package web

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func pass(name string) Stage {
	return Stage{Name: name, Wrap: func(next http.Handler) http.Handler { return next }}
}

func TestBuildPipelineOrder(t *testing.T) {
	logger := zaptest.NewLogger(t)

	got := Names(BuildPipeline(false, Components{}, logger))
	want := []string{StageRequestID, StageAccessLog, StageErrorBoundary, StageRateLimit, StageStaticFiles, StageRouting, StageSPAFallback}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected stage order %v", got)
	}

	got = Names(BuildPipeline(true, Components{}, logger, WithLogging(false), WithRateLimit(0, 0)))
	want = []string{StageRequestID, StageErrorBoundary, StageStaticFiles, StageRouting, StageSPAFallback}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected stage order without ambient stages %v", got)
	}
}

func TestAssembleRejectsOutOfOrderStages(t *testing.T) {
	cases := map[string][]Stage{
		"fallback before routing": {pass(StageErrorBoundary), pass(StageSPAFallback), pass(StageRouting)},
		"static after routing":    {pass(StageRouting), pass(StageStaticFiles)},
		"boundary after static":   {pass(StageStaticFiles), pass(StageErrorBoundary)},
		"fallback not last":       {pass(StageSPAFallback), pass(StageAccessLog)},
		"duplicate stage":         {pass(StageRouting), pass(StageRouting)},
		"missing wrap":            {{Name: StageRouting}},
	}
	for name, stages := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Assemble(stages...); err == nil {
				t.Fatalf("expected Assemble to reject %v", Names(stages))
			}
		})
	}
}

func TestAssembleAppliesStagesInOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Stage {
		return Stage{Name: name, Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}}
	}

	h, err := Assemble(mark("first"), mark(StageErrorBoundary), mark("second"))
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	rec := get(t, h, "/anything")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected empty pipeline to end in 404, got %d", rec.Code)
	}
	if want := []string{"first", StageErrorBoundary, "second"}; !slices.Equal(trace, want) {
		t.Fatalf("unexpected trace %v", trace)
	}
}

func TestPipelineServesDefaultRoute(t *testing.T) {
	h := newTestPipeline(t, false)

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "home index" {
		t.Fatalf("expected home index, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestPipelineStaticAssetWinsOverRoutes(t *testing.T) {
	h := newTestPipeline(t, false)

	rec := get(t, h, "/Home/Index")
	if rec.Body.String() != "shadow" {
		t.Fatalf("expected static asset to shadow the route, got %q", rec.Body.String())
	}

	rec = get(t, h, "/js/app.js")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console.log") {
		t.Fatalf("expected static asset, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPipelineFallsBackForUnmatched(t *testing.T) {
	h := newTestPipeline(t, false)

	for _, target := range []string{"/Pets", "/SearchRooms", "/RoomDetail/1", "/a/b/c/d", "/missing.js", "/Home/Unknown", "/css"} {
		rec := get(t, h, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		if rec.Body.String() != fallbackHTML {
			t.Fatalf("%s: expected fallback document, got %q", target, rec.Body.String())
		}
	}
}

func TestPipelineDevelopmentDiagnostics(t *testing.T) {
	h := newTestPipeline(t, true)

	rec := get(t, h, "/Home/Boom?x=1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"kaboom", "/Home/Boom", "Stack", "goroutine"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected diagnostics to contain %q, got %s", want, body)
		}
	}

	rec = get(t, h, "/Home/Fail")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "action failed") {
		t.Fatalf("expected diagnostics for returned error, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPipelineProductionRedirects(t *testing.T) {
	h := newTestPipeline(t, false)

	for _, target := range []string{"/Home/Boom", "/Home/Fail"} {
		rec := get(t, h, target)
		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", target, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != DefaultErrorPath {
			t.Fatalf("%s: expected redirect to %s, got %s", target, DefaultErrorPath, loc)
		}
		body := rec.Body.String()
		if strings.Contains(body, "kaboom") || strings.Contains(body, "action failed") || strings.Contains(body, "goroutine") {
			t.Fatalf("%s: diagnostic detail leaked: %s", target, body)
		}
	}

	rec := get(t, h, DefaultErrorPath)
	if rec.Code != http.StatusOK || rec.Body.String() != "generic error page" {
		t.Fatalf("expected error page to render, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPipelineRateLimit(t *testing.T) {
	h := newTestPipeline(t, false, WithRateLimiter(&staticLimiter{allow: false}))

	rec := get(t, h, "/")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

type panickingLimiter struct{}

func (panickingLimiter) Allow() bool {
	panic("limiter state corrupted")
}

func TestPipelineBoundaryCoversRateLimit(t *testing.T) {
	rec := get(t, newTestPipeline(t, false, WithRateLimiter(panickingLimiter{})), "/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != DefaultErrorPath {
		t.Fatalf("expected redirect to error page, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id on fault response")
	}

	rec = get(t, newTestPipeline(t, true, WithRateLimiter(panickingLimiter{})), "/")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "limiter state corrupted") {
		t.Fatalf("expected diagnostics for limiter panic, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPipelineHealth(t *testing.T) {
	h := newTestPipeline(t, false)

	rec := get(t, h, "/api/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"testimonials":"active"`) {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}
