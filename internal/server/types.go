// Package server provides the HTTP surface for the storage providers.
// It includes handlers, middleware, routes, and DTOs separated from storage types.
package server

// FileQuery holds the query parameters shared by the file routes.
type FileQuery struct {
	// Filename is the bucket-relative path, or a path returned by an upload.
	Filename string `validate:"required"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Title is the HTTP status text.
	Title string `json:"title"`
	// Description is the human-readable error message.
	Description string `json:"description"`
	// Code is the error code for programmatic handling.
	Code string `json:"code,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
