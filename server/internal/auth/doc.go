// Package auth provides authentication middleware for netpulse-server.
//
// APIKey(mode, header, key, exempt...) wraps an http.Handler and validates
// the API key carried in the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). When the key is incorrect or absent
// the middleware answers 401 immediately. Exempt paths such as the liveness
// probe skip the check.
package auth
