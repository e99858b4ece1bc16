// Package settings binds the flat key/value site configuration into an
// immutable Settings value. Loading happens once at startup; a missing
// required key aborts it with a ConfigurationError.
package settings
