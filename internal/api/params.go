package api

import (
	"net/url"
	"strconv"
	"unicode/utf8"
)

// Parameter bounds enforced before any request is issued.
const (
	// MaxCursorLength is the longest pagination cursor the platform accepts.
	MaxCursorLength = 255
	// MinPageSize and MaxPageSize bound the per-page item count.
	MinPageSize = 1
	MaxPageSize = 100
)

// Sort directions accepted by list endpoints.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions holds the shared pagination parameters of list endpoints.
// Zero values mean "not set" and are omitted from the query string;
// Per is a pointer so an explicit out-of-range zero is still rejected.
type ListOptions struct {
	From string // pagination cursor returned as next_page by a previous call
	Per  *int   // page size, MinPageSize..MaxPageSize
	Sort string // sort_direction: SortAsc or SortDesc
}

// validate checks the pagination parameters against the platform's bounds.
func (o ListOptions) validate() error {
	if utf8.RuneCountInString(o.From) > MaxCursorLength {
		return newValidationError("from", "cursor exceeds maximum length of %d characters (got %d)", MaxCursorLength, utf8.RuneCountInString(o.From))
	}
	if o.Per != nil && (*o.Per < MinPageSize || *o.Per > MaxPageSize) {
		return newValidationError("per", "page size must be between %d and %d (got %d)", MinPageSize, MaxPageSize, *o.Per)
	}
	if o.Sort != "" && o.Sort != SortAsc && o.Sort != SortDesc {
		return newValidationError("sort", "sort direction must be %q or %q (got %q)", SortAsc, SortDesc, o.Sort)
	}
	return nil
}

// query renders the options as a query string, including only set fields.
func (o ListOptions) query() string {
	values := url.Values{}
	if o.From != "" {
		values.Set("from", o.From)
	}
	if o.Per != nil {
		values.Set("per", strconv.Itoa(*o.Per))
	}
	if o.Sort != "" {
		values.Set("sort_direction", o.Sort)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// validateCompanyID rejects negative company ids before a request is built.
func validateCompanyID(companyID int) error {
	if companyID < 0 {
		return newValidationError("company_id", "must not be negative (got %d)", companyID)
	}
	return nil
}

// validateConversationID rejects negative conversation ids.
func validateConversationID(conversationID int) error {
	if conversationID < 0 {
		return newValidationError("conversation_id", "must not be negative (got %d)", conversationID)
	}
	return nil
}

// validateChannelID rejects negative channel ids.
func validateChannelID(channelID int) error {
	if channelID < 0 {
		return newValidationError("channel_id", "must not be negative (got %d)", channelID)
	}
	return nil
}

// requireNonEmpty rejects empty credentials and other mandatory strings.
func requireNonEmpty(field, value string) error {
	if value == "" {
		return newValidationError(field, "must not be empty")
	}
	return nil
}
