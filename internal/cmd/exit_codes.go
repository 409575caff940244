package cmd

import (
	"errors"
	"net"
	"strings"

	"github.com/spf13/pflag"

	"github.com/pact-im/pact-cli/internal/api"
)

// Exit codes returned by the CLI. Scripts can branch on these instead of
// parsing error text.
const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}

	var handled *handledError
	if errors.As(err, &handled) {
		return handled.code
	}

	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}

	return exitCodeForAPIError(err)
}

func exitCodeForAPIError(err error) int {
	structured := api.StructuredErrorFromError(err)
	if structured == nil {
		return exitGeneric
	}
	switch structured.Code {
	case api.ErrUnauthorized:
		return exitAuth
	case api.ErrNotFound:
		return exitNotFound
	case api.ErrForbidden:
		return exitForbidden
	case api.ErrRateLimited, api.ErrCircuitOpen:
		return exitRateLimited
	case api.ErrServerError:
		return exitServer
	case api.ErrTimeout:
		return exitNetwork
	case api.ErrValidation, api.ErrBadRequest:
		return exitUsage
	default:
		return exitGeneric
	}
}

// isUsageError recognizes cobra/pflag parse failures and argument errors.
func isUsageError(err error) bool {
	msg := err.Error()
	usageMarkers := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"required flag",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"needs an argument",
		"flag is required",
		"must be provided",
	}
	for _, marker := range usageMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isNetworkError recognizes transport-level failures that never reached the API.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	networkMarkers := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"TLS handshake",
		"certificate",
	}
	for _, marker := range networkMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
