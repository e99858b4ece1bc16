package testimonials

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	positiveProviderName = "positive"

	defaultMinRating      = 4
	defaultLimit          = 6
	defaultTripAfter      = 3
	defaultBreakerTimeout = 30 * time.Second
)

// PositiveOption configures NewPositiveProvider.
type PositiveOption func(*positiveConfig)

// WithMinRating sets the lowest rating that counts as positive.
func WithMinRating(rating int) PositiveOption {
	return func(cfg *positiveConfig) {
		cfg.minRating = rating
	}
}

// WithLimit caps the number of testimonials returned. Zero means no cap.
func WithLimit(limit int) PositiveOption {
	return func(cfg *positiveConfig) {
		cfg.limit = limit
	}
}

// WithBreaker overrides the circuit breaker thresholds (primarily for tests).
func WithBreaker(tripAfter uint32, openFor time.Duration) PositiveOption {
	return func(cfg *positiveConfig) {
		cfg.tripAfter = tripAfter
		cfg.openFor = openFor
	}
}

// WithLogger attaches a logger for breaker state changes.
func WithLogger(logger *zap.Logger) PositiveOption {
	return func(cfg *positiveConfig) {
		cfg.logger = logger
	}
}

type positiveConfig struct {
	minRating int
	limit     int
	tripAfter uint32
	openFor   time.Duration
	logger    *zap.Logger
}

// PositiveProvider is the active implementation. It keeps the newest
// testimonials whose rating reaches the configured minimum.
type PositiveProvider struct {
	source    Source
	breaker   *gobreaker.CircuitBreaker
	minRating int
	limit     int
}

// NewPositiveProvider wraps source with filtering and a circuit breaker.
func NewPositiveProvider(source Source, opts ...PositiveOption) *PositiveProvider {
	cfg := positiveConfig{
		minRating: defaultMinRating,
		limit:     defaultLimit,
		tripAfter: defaultTripAfter,
		openFor:   defaultBreakerTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tripAfter == 0 {
		cfg.tripAfter = 1
	}

	tripAfter := cfg.tripAfter
	logger := cfg.logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        positiveProviderName,
		MaxRequests: 1,
		Timeout:     cfg.openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("testimonial breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &PositiveProvider{
		source:    source,
		breaker:   breaker,
		minRating: cfg.minRating,
		limit:     cfg.limit,
	}
}

func (p *PositiveProvider) FetchTestimonials(ctx context.Context) ([]Testimonial, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.source.Load(ctx)
	})
	if err != nil {
		return nil, &ProviderError{Provider: positiveProviderName, Err: err}
	}

	all, _ := out.([]Testimonial)
	kept := make([]Testimonial, 0, len(all))
	for _, t := range all {
		if t.Rating >= p.minRating && t.Text != "" {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PostedAt.After(kept[j].PostedAt)
	})
	if p.limit > 0 && len(kept) > p.limit {
		kept = kept[:p.limit]
	}
	return kept, nil
}

// BreakerOpen reports whether err was caused by an open circuit.
func BreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
