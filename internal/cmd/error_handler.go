package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pact-im/pact-cli/internal/api"
)

// HandleError prints a user-facing error message with recovery suggestions.
// Used for text output; JSON output gets a structured error object instead.
func HandleError(w io.Writer, err error) {
	if err == nil {
		return
	}

	var rateLimitErr *api.RateLimitError
	var breakerErr *api.CircuitBreakerError
	var authErr *api.AuthError
	var apiErr *api.APIError

	switch {
	case errors.As(err, &rateLimitErr):
		_, _ = fmt.Fprintf(w, "Error: rate limit exceeded\n")
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Wait %s before retrying\n", rateLimitErr.RetryAfter)
		_, _ = fmt.Fprintf(w, "  - Reduce request frequency or batch sizes\n")

	case errors.As(err, &breakerErr):
		_, _ = fmt.Fprintf(w, "Error: too many recent failures, requests are paused\n")
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Wait about 30 seconds for the circuit to reset\n")
		_, _ = fmt.Fprintf(w, "  - Check https://status.pact.im for outages\n")

	case errors.As(err, &authErr):
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Run 'pact auth login' to save valid credentials\n")
		_, _ = fmt.Fprintf(w, "  - Check that PACT_API_TOKEN is current if set\n")

	case errors.As(err, &apiErr):
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		if suggestions := suggestionsForStatusCode(apiErr.StatusCode); len(suggestions) > 0 {
			_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
			for _, s := range suggestions {
				_, _ = fmt.Fprintf(w, "  - %s\n", s)
			}
		}
		if apiErr.RequestID != "" {
			_, _ = fmt.Fprintf(w, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case strings.Contains(err.Error(), "connection refused"):
		_, _ = fmt.Fprintf(w, "Error: cannot connect to the API server\n")
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Check the base URL (pact auth status)\n")
		_, _ = fmt.Fprintf(w, "  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		_, _ = fmt.Fprintf(w, "Error: cannot resolve the API host\n")
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Check the base URL for typos (pact auth status)\n")
		_, _ = fmt.Fprintf(w, "  - Check your DNS configuration\n")

	case strings.Contains(err.Error(), "certificate"):
		_, _ = fmt.Fprintf(w, "Error: TLS certificate problem: %v\n", err)
		_, _ = fmt.Fprintf(w, "\nSuggestions:\n")
		_, _ = fmt.Fprintf(w, "  - Check that the base URL uses the correct hostname\n")
		_, _ = fmt.Fprintf(w, "  - Check the system clock and CA certificates\n")

	default:
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	}
}

func suggestionsForStatusCode(statusCode int) []string {
	switch statusCode {
	case 400:
		return []string{"Check the request parameters for invalid values"}
	case 401:
		return []string{
			"Run 'pact auth login' to save valid credentials",
			"Verify the API token in your company settings",
		}
	case 403:
		return []string{"Check that your token has access to this company"}
	case 404:
		return []string{
			"Verify the resource ID exists",
			"Check the company ID (--company or PACT_COMPANY_ID)",
		}
	case 409:
		return []string{"The resource may have changed; list it again and retry"}
	case 422:
		return []string{"Check the input values against the provider's requirements"}
	default:
		if statusCode >= 500 {
			return []string{
				"The server had an internal error; try again later",
				"Check https://status.pact.im for outages",
			}
		}
		return nil
	}
}
