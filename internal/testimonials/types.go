package testimonials

import (
	"context"
	"fmt"
	"time"
)

// Testimonial is a single customer quote.
type Testimonial struct {
	Author   string    `yaml:"author" json:"author"`
	Location string    `yaml:"location" json:"location,omitempty"`
	Text     string    `yaml:"text" json:"text"`
	Rating   int       `yaml:"rating" json:"rating"`
	PostedAt time.Time `yaml:"posted_at" json:"postedAt"`
}

// Provider describes the behaviour required from a testimonial source.
// Implementations return a finite slice and may be called repeatedly.
type Provider interface {
	FetchTestimonials(ctx context.Context) ([]Testimonial, error)
}

// ProviderError is returned when a provider fails at call time.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("testimonial provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
