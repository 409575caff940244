package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits to prevent resource exhaustion
const (
	MaxNameLength    = 255
	MaxPhoneLength   = 20      // International E.164 format
	MaxMessageLength = 100000  // 100KB for message content
	MaxJSONPayload   = 1048576 // 1MB for JSON payloads
	MaxURLLength     = 2048    // Standard browser URL limit
)

// ValidateName validates a company or channel name length
func ValidateName(name string) error {
	if name == "" {
		return nil // Empty names are allowed (field is optional in some contexts)
	}

	length := utf8.RuneCountInString(name)
	if length > MaxNameLength {
		return fmt.Errorf("name exceeds maximum length of %d characters (got %d)", MaxNameLength, length)
	}

	return nil
}

// ValidatePhone validates a phone number length
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil // Empty phone numbers are allowed (field is optional in some contexts)
	}

	length := utf8.RuneCountInString(phone)
	if length > MaxPhoneLength {
		return fmt.Errorf("phone number exceeds maximum length of %d characters (got %d)", MaxPhoneLength, length)
	}

	return nil
}

// ValidatePhoneFormat validates phone number format (basic validation).
// Returns nil for empty phones (optional field).
// Allows digits, spaces, dashes, parentheses, and leading +.
func ValidatePhoneFormat(phone string) error {
	if phone == "" {
		return nil
	}
	for i, r := range phone {
		if r == '+' && i == 0 {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		return fmt.Errorf("invalid phone format: contains invalid character '%c'", r)
	}
	return nil
}

// ValidateMessageContent validates message content length.
// Empty content is allowed (attachment-only messages); callers should check
// if content is required before calling this function.
func ValidateMessageContent(content string) error {
	if content == "" {
		return nil
	}

	// Byte length, message content is transmitted as UTF-8
	length := len(content)
	if length > MaxMessageLength {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d)", MaxMessageLength, length)
	}

	return nil
}

// ValidateJSONPayload validates JSON payload size
func ValidateJSONPayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}

	length := len(payload)
	if length > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, length)
	}

	return nil
}

// ParseNonNegativeInt parses a string as a non-negative integer ID.
// Returns error if the value is negative or exceeds int32 range.
func ParseNonNegativeInt(s string, fieldName string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	id64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", fieldName, err)
	}
	if id64 < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", fieldName)
	}
	return int(id64), nil
}

// ParsePositiveInt parses a string as a positive integer ID.
// Returns error if the value is not a positive integer or exceeds int32 range.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	id, err := ParseNonNegativeInt(s, fieldName)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", fieldName)
	}
	return id, nil
}
