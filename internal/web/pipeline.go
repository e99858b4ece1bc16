package web

import (
	"fmt"
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

// Stage names. The four core stages must appear in this relative order.
const (
	StageRequestID     = "request-id"
	StageAccessLog     = "access-log"
	StageRateLimit     = "rate-limit"
	StageErrorBoundary = "error-boundary"
	StageStaticFiles   = "static-files"
	StageRouting       = "routing"
	StageSPAFallback   = "spa-fallback"
)

// DefaultErrorPath is where non-development faults are redirected.
const DefaultErrorPath = "/Home/Error"

// Default token bucket. A page view fans out into the document plus its
// assets, so the bucket is sized per asset request, not per page.
const (
	DefaultRateLimitRPS   = 200
	DefaultRateLimitBurst = 400
)

var coreOrder = map[string]int{
	StageErrorBoundary: 1,
	StageStaticFiles:   2,
	StageRouting:       3,
	StageSPAFallback:   4,
}

// Stage is one request interceptor. Wrap receives the remainder of the
// pipeline and returns the handler for this stage.
type Stage struct {
	Name string
	Wrap func(next http.Handler) http.Handler
}

// Components are the startup-built pieces the core stages dispatch to.
type Components struct {
	Assets   fs.FS
	Routes   *Routes
	Fallback *FallbackDocument
}

// PipelineOption configures BuildPipeline.
type PipelineOption func(*pipelineConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) PipelineOption {
	return func(cfg *pipelineConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimit configures the token bucket. A non-positive rps or burst disables limiting.
func WithRateLimit(rps float64, burst int) PipelineOption {
	return func(cfg *pipelineConfig) {
		if rps <= 0 || burst <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newTokenBucketLimiter(rps, burst)
	}
}

// WithRateLimiter overrides the request rate limiter (primarily for tests).
func WithRateLimiter(limiter rateLimiter) PipelineOption {
	return func(cfg *pipelineConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithErrorPath overrides the generic error page path.
func WithErrorPath(path string) PipelineOption {
	return func(cfg *pipelineConfig) {
		if path != "" {
			cfg.errorPath = path
		}
	}
}

type pipelineConfig struct {
	enableLogging bool
	rateLimiter   rateLimiter
	errorPath     string
}

// BuildPipeline returns the ordered stage list. development selects the
// diagnostic error boundary; every other mode redirects to the error page.
func BuildPipeline(development bool, c Components, logger *zap.Logger, opts ...PipelineOption) []Stage {
	cfg := pipelineConfig{
		enableLogging: true,
		rateLimiter:   newTokenBucketLimiter(DefaultRateLimitRPS, DefaultRateLimitBurst),
		errorPath:     DefaultErrorPath,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// request-id and access-log wrap the boundary so fault responses carry the
	// request ID and are logged with their final status.
	stages := []Stage{
		{Name: StageRequestID, Wrap: requestIDMiddleware},
	}
	if cfg.enableLogging {
		stages = append(stages, Stage{Name: StageAccessLog, Wrap: func(next http.Handler) http.Handler {
			return loggingMiddleware(logger, next)
		}})
	}
	stages = append(stages, ErrorBoundary(development, cfg.errorPath, logger))
	if cfg.rateLimiter != nil {
		limiter := cfg.rateLimiter
		stages = append(stages, Stage{Name: StageRateLimit, Wrap: func(next http.Handler) http.Handler {
			return rateLimitMiddleware(limiter, next)
		}})
	}

	return append(stages,
		StaticFiles(c.Assets),
		Routing(c.Routes),
		SPAFallback(c.Fallback),
	)
}

// Assemble chains stages so that stages[0] sees the request first. It
// rejects lists whose core stages are out of order or whose fallback is not
// last, since anything after the fallback would never run.
func Assemble(stages ...Stage) (http.Handler, error) {
	last := 0
	for i, s := range stages {
		if s.Wrap == nil {
			return nil, fmt.Errorf("stage %q has no handler", s.Name)
		}
		rank, core := coreOrder[s.Name]
		if !core {
			continue
		}
		if rank <= last {
			return nil, fmt.Errorf("stage %q is out of order", s.Name)
		}
		last = rank
		if s.Name == StageSPAFallback && i != len(stages)-1 {
			return nil, fmt.Errorf("stage %q must be last", StageSPAFallback)
		}
	}

	var h http.Handler = http.NotFoundHandler()
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i].Wrap(h)
	}
	return h, nil
}

// Names lists stage names in order.
func Names(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}
