// Package application is the composition root. It loads settings, binds the
// testimonial provider, assembles the request pipeline and builds the HTTP
// server, keeping the main package focused on CLI parsing and orchestration.
package application
