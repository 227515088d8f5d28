// Package duration parses human-readable cache expiration expressions
// such as "30s", "5m", "1.5h", "1d", or "2w" into whole seconds.
package duration
