// Package web assembles the request pipeline: ambient middleware, the error
// boundary, static assets, conventional controller routing and the SPA
// fallback document, applied to every request in that fixed order.
package web
