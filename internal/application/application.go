package application

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/hotel-showcase/internal/config"
	"github.com/eugenenazirov/hotel-showcase/internal/home"
	"github.com/eugenenazirov/hotel-showcase/internal/settings"
	"github.com/eugenenazirov/hotel-showcase/internal/testimonials"
	"github.com/eugenenazirov/hotel-showcase/internal/web"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	settings     settings.Settings
	testimonials testimonials.Binding
	stages       []web.Stage
	handler      http.Handler
	logger       *zap.Logger
	server       *http.Server
}

// New composes the application from cfg. Every startup failure is returned
// before a server exists, so no request is accepted with partial state.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	siteSettings, err := settings.Load(cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	binding, err := selectTestimonials(cfg, siteSettings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure testimonials: %w", err)
	}

	assets, err := openAssets(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	fallback, err := web.LoadFallback(assets, cfg.FallbackFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load SPA fallback: %w", err)
	}

	homeHandler, err := home.NewHandler(siteSettings, binding.Provider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build home controller: %w", err)
	}

	routes := web.NewRoutes()
	routes.Handle("health", http.MethodGet, "/api/health", web.Health(binding.Kind.String(), nil))
	routes.Register(homeHandler.Controller())

	stages := web.BuildPipeline(cfg.IsDevelopment(), web.Components{
		Assets:   assets,
		Routes:   routes,
		Fallback: fallback,
	}, logger,
		web.WithLogging(cfg.EnableRequestLogging),
		web.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	handler, err := web.Assemble(stages...)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	logger.Info("application composed",
		zap.String("environment", cfg.Environment),
		zap.Bool("development", cfg.IsDevelopment()),
		zap.String("testimonials", binding.Kind.String()),
		zap.Strings("pipeline", web.Names(stages)),
	)

	return &App{
		settings:     siteSettings,
		testimonials: binding,
		stages:       stages,
		handler:      handler,
		logger:       logger,
		server:       NewServer(cfg, handler),
	}, nil
}

// selectTestimonials binds the process-wide testimonial provider.
func selectTestimonials(cfg config.Config, s settings.Settings, logger *zap.Logger) (testimonials.Binding, error) {
	if s.TestimonialsDisabled() {
		return testimonials.Select(true, nil), nil
	}

	var source testimonials.Source
	if cfg.TestimonialsFile != "" {
		source = testimonials.FileSource{Path: cfg.TestimonialsFile}
	} else {
		bundled, err := testimonials.DefaultSource()
		if err != nil {
			return testimonials.Binding{}, err
		}
		source = bundled
	}

	active := testimonials.NewPositiveProvider(source,
		testimonials.WithMinRating(s.TestimonialsMinRating),
		testimonials.WithLimit(s.TestimonialsLimit),
		testimonials.WithLogger(logger),
	)
	return testimonials.Select(false, active), nil
}

// openAssets resolves dir against the working directory, then the project
// root, and returns it as a file system.
func openAssets(dir string) (fs.FS, error) {
	path := dir
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			resolved, err := resolveProjectPath(path)
			if err != nil {
				return nil, err
			}
			path = resolved
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return os.DirFS(path), nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the assembled request pipeline.
func (a *App) Handler() http.Handler {
	return a.handler
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
