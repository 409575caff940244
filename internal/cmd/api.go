package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newAPICmd() *cobra.Command {
	var (
		method         string
		fields         []string
		rawFields      []string
		inputFile      string
		jsonBody       string
		includeHeaders bool
	)

	cmd := &cobra.Command{
		Use:   "api <endpoint>",
		Short: "Make a raw request to any Pact API endpoint",
		Long: strings.TrimSpace(`
Make a raw request to any Pact API endpoint.

The endpoint path is relative to the API root, so "/companies/1/channels"
becomes "{base-url}/p1/companies/1/channels". Use it for endpoints that
have no dedicated subcommand yet.
`),
		Example: strings.TrimSpace(`
  # GET request (default)
  pact api /companies/1/channels

  # POST with string fields
  pact api /companies -X POST -f name=Acme -f phone=79250000001

  # JSON-typed field values
  pact api /companies/1 -X PUT -F hidden=true

  # Inline JSON body
  pact api /companies -X POST -d '{"name": "Acme"}'

  # Body from a file or stdin
  pact api /companies -X POST -i body.json
  echo '{"name": "Acme"}' | pact api /companies -X POST -i -

  # Show the response status and headers
  pact api /companies/1/channels --include
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			endpoint := args[0]
			streams := cmd.OutOrStdout()

			validMethods := map[string]bool{
				"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
			}
			method = strings.ToUpper(method)
			if !validMethods[method] {
				return fmt.Errorf("invalid HTTP method %q: must be one of GET, POST, PUT, PATCH, DELETE", method)
			}

			if jsonBody != "" && inputFile != "" {
				return fmt.Errorf("cannot use both --body and --input flags")
			}

			body, err := buildRequestBody(fields, rawFields, inputFile, jsonBody)
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			respBody, headers, statusCode, err := client.DoRaw(cmdContext(cmd), method, endpoint, body)
			if err != nil {
				return err
			}

			if flags.Silent {
				return nil
			}

			if isJSON(cmd) {
				return printJSON(cmd, rawResponsePayload(respBody, headers, statusCode, includeHeaders))
			}

			if includeHeaders {
				_, _ = fmt.Fprintf(streams, "HTTP %d\n", statusCode)
				keys := make([]string, 0, len(headers))
				for k := range headers {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					for _, v := range headers[k] {
						_, _ = fmt.Fprintf(streams, "%s: %s\n", k, v)
					}
				}
				_, _ = fmt.Fprintln(streams)
			}

			if len(respBody) > 0 {
				var decoded any
				if err := json.Unmarshal(respBody, &decoded); err == nil {
					pretty, err := json.MarshalIndent(decoded, "", "  ")
					if err == nil {
						_, _ = fmt.Fprintln(streams, string(pretty))
						return nil
					}
				}
				_, _ = fmt.Fprintln(streams, string(respBody))
			}

			return nil
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method (GET, POST, PUT, PATCH, DELETE)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Request body field as key=value (string)")
	cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "Request body field as key=value (JSON parsed)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
	cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON string")
	cmd.Flags().BoolVar(&includeHeaders, "include", false, "Include response status and headers in output")
	flagAlias(cmd.Flags(), "include", "inc")

	return cmd
}

func rawResponsePayload(respBody []byte, headers map[string][]string, statusCode int, includeHeaders bool) any {
	body := rawResponseBody(respBody)
	if !includeHeaders {
		return body
	}
	return map[string]any{
		"status":  statusCode,
		"headers": headers,
		"body":    body,
	}
}

func rawResponseBody(respBody []byte) any {
	if len(respBody) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		return string(respBody)
	}
	return json.RawMessage(respBody)
}

// buildRequestBody merges --body / --input JSON with any --field and
// --raw-field values. Fields win over the base document.
func buildRequestBody(fields, rawFields []string, inputFile, jsonBody string) (map[string]any, error) {
	body := make(map[string]any)

	if jsonBody != "" {
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --body JSON: %w", err)
		}
	}

	if inputFile != "" {
		var inputData []byte
		var err error
		if inputFile == "-" {
			inputData, err = io.ReadAll(os.Stdin)
		} else {
			inputData, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(inputData, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

func parseField(field string) (string, string, error) {
	parts := strings.SplitN(field, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return parts[0], parts[1], nil
}

// parseRawField parses a key=value field where the value is JSON. A value
// that fails to parse as JSON is kept as a plain string.
func parseRawField(field string) (string, any, error) {
	parts := strings.SplitN(field, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}
	var value any
	if err := json.Unmarshal([]byte(parts[1]), &value); err != nil {
		return parts[0], parts[1], nil
	}
	return parts[0], value, nil
}
