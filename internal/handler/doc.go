// Package handler provides HTTP request handlers for the Pausemo API.
//
// Each handler struct wraps the small service interface it needs, so tests
// can drive it with func-field mocks.
//
// # Response Format
//
// Handlers use standardized response functions:
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: List of resources
//   - WriteError: RFC 9457 Problem Details error response
//
// Service errors are translated by MapServiceError. Validation failures map
// to 422, missing or foreign resources to 404, phase and lifecycle violations
// to 409, and an empty card pool to 422.
//
// # Identity
//
// Authentication happens upstream. Routes under /v1 read the caller from the
// X-User-ID header via middleware.UserContext and fetch it with
// middleware.GetUserID.
package handler
