package testimonials

import (
	"context"

	"go.uber.org/zap"
)

// Kind tags which implementation a Binding holds.
type Kind int

const (
	KindActive Kind = iota
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindActive:
		return "active"
	}
	return "unknown"
}

// Binding is the process-wide testimonial capability. It is selected once at
// composition time and not changed afterwards.
type Binding struct {
	Kind     Kind
	Provider Provider
}

// Select binds the null provider when disabled is true and active otherwise.
// A nil active provider degrades to the null provider.
func Select(disabled bool, active Provider) Binding {
	if disabled || active == nil {
		return Binding{Kind: KindNull, Provider: NullProvider{}}
	}
	return Binding{Kind: KindActive, Provider: active}
}

// FetchOrEmpty calls p and substitutes an empty slice on any failure so page
// rendering never depends on the provider being healthy.
func FetchOrEmpty(ctx context.Context, p Provider, logger *zap.Logger) []Testimonial {
	items, err := p.FetchTestimonials(ctx)
	if err != nil {
		logger.Warn("testimonials unavailable",
			zap.Error(err),
			zap.Bool("breaker_open", BreakerOpen(err)),
		)
		return []Testimonial{}
	}
	if items == nil {
		return []Testimonial{}
	}
	return items
}
