package testimonials

import "context"

// NullProvider is the disabled implementation. It always returns an empty slice.
type NullProvider struct{}

func (NullProvider) FetchTestimonials(context.Context) ([]Testimonial, error) {
	return []Testimonial{}, nil
}
