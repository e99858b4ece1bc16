// Package testimonials provides the customer testimonial capability shown on
// the landing page. One Provider is bound per process by Select: the null
// provider when testimonials are disabled, the positive provider otherwise.
package testimonials
