// Package graphql provides the HTTP transport for the catalog backend
// GraphQL API: bearer session handling, query execution and multipart
// file uploads.
package graphql

import "context"

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Client defines the interface for executing GraphQL queries.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// File is a single file part of a multipart GraphQL request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader executes GraphQL operations that carry file variables. files is
// keyed by variable path, e.g. "variables.image".
type Uploader interface {
	Client
	Upload(ctx context.Context, query string, variables map[string]any, files map[string]File) ([]byte, error)
}

// TokenSource supplies the bearer credential attached to each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
