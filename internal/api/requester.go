package api

import "context"

// PathResolver provides methods for resolving API endpoint paths.
// It abstracts the URL construction logic, allowing services to build
// paths without knowing the base URL details.
//
// Company scope is passed per call because the platform addresses every
// resource under a company path segment rather than binding a client to
// a single tenant.
type PathResolver interface {
	// companyPath returns the full path for company-scoped API endpoints.
	// Example: companyPath(42, "/channels") -> "{base}/p1/companies/42/channels"
	companyPath(companyID int, path string) string

	// apiPath returns the full path for endpoints outside a company scope.
	// Example: apiPath("/companies") -> "{base}/p1/companies"
	apiPath(path string) string
}

// HTTPExecutor provides methods for executing HTTP requests.
// It abstracts the HTTP client logic, handling JSON serialization,
// error handling, retries, and response parsing.
type HTTPExecutor interface {
	// do executes an HTTP request with JSON body and envelope-aware
	// response parsing. The body is marshaled to JSON if non-nil, and
	// the response data payload is unmarshaled into result if non-nil.
	do(ctx context.Context, method, url string, body any, result any) error

	// doRaw executes an HTTP request and returns the raw response bytes.
	// Useful when the response format needs custom parsing.
	doRaw(ctx context.Context, method, url string, body any) ([]byte, error)

	// PostMultipart performs a multipart/form-data POST request.
	// Used for attachment uploads.
	PostMultipart(ctx context.Context, companyID int, path string, fields map[string]string, files map[string][]byte, result any) error
}

// Requester combines PathResolver and HTTPExecutor to provide
// the complete request surface used by resource helpers.
//
// Services that need only a subset of functionality can depend on the
// smaller interfaces (PathResolver or HTTPExecutor) for improved
// testability.
type Requester interface {
	PathResolver
	HTTPExecutor
}
