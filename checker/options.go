package checker

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Checker.
type Option func(*Checker)

// WithAuthorityHost points the checker at a different identity provider host,
// e.g. "https://login.microsoftonline.us" for a national cloud or a stub in tests.
func WithAuthorityHost(host string) Option {
	return func(c *Checker) {
		if host != "" {
			c.authorityHost = host
		}
	}
}

// WithTimeout bounds the whole check, discovery included. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		c.timeout = timeout
	}
}

// WithDiscovery resolves the token endpoint through OpenID discovery before requesting a token.
func WithDiscovery(enabled bool) Option {
	return func(c *Checker) {
		c.discovery = enabled
	}
}

// WithClaims decodes the issued access token and adds a claims summary to the Result.
func WithClaims(enabled bool) Option {
	return func(c *Checker) {
		c.decodeClaims = enabled
	}
}

// WithTransport sets the base RoundTripper used for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Checker) {
		c.transport = rt
	}
}

// WithLogger sets the logger for request events. If not set, nothing is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithReporter prints the masked configuration and the outcome of each Run.
func WithReporter(r *Reporter) Option {
	return func(c *Checker) {
		c.reporter = r
	}
}
