// Package middleware provides HTTP middleware for the Pausemo API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one structured log line per request
//   - Recovery: turns panics into a 500 problem response
//   - CORS: origin allow-list
//   - RateLimit: token bucket per caller
//   - UserContext: reads the gateway-supplied X-User-ID header
//
// The server applies the first five globally, in that order, and wraps each
// /v1 route in UserContext.
//
// # Context Values
//
//   - GetUserID(ctx): caller identity set by UserContext
//   - GetRequestID(ctx): request identifier set by RequestID
package middleware
