// Package home is the default controller of the conventional route: the
// landing page, the generic error page and the testimonial feed consumed by
// the client application.
package home
