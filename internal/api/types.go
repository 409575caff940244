package api

import "time"

// Channel is a configured messaging provider connection belonging to a company.
type Channel struct {
	ID           int            `json:"external_id"`
	Provider     string         `json:"provider"`
	State        string         `json:"state,omitempty"`
	InstagramBot map[string]any `json:"instagram_bot,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
}

// ChannelList is one page of channels plus the cursor for the next page.
type ChannelList struct {
	Channels []Channel `json:"channels"`
	NextPage string    `json:"next_page,omitempty"`
}

// Company is the tenant scope under which channels and conversations live.
type Company struct {
	ID          int    `json:"external_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	WebhookURL  string `json:"webhook_url,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CompanyList is one page of companies plus the cursor for the next page.
type CompanyList struct {
	Companies []Company `json:"companies"`
	NextPage  string    `json:"next_page,omitempty"`
}

// Conversation is a dialog with an end user over some channel.
type Conversation struct {
	ID                  int    `json:"external_id"`
	Name                string `json:"name,omitempty"`
	ChannelID           int    `json:"channel_id,omitempty"`
	ChannelType         string `json:"channel_type,omitempty"`
	Avatar              string `json:"avatar,omitempty"`
	SenderExternalID    string `json:"sender_external_id,omitempty"`
	LastMessageAt       string `json:"last_message_at,omitempty"`
	LastIncomeMessageAt string `json:"last_income_message_at,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
}

// ConversationList is one page of conversations plus the next-page cursor.
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	NextPage      string         `json:"next_page,omitempty"`
}

// Message is a single message within a conversation.
type Message struct {
	ID             int          `json:"external_id"`
	ChannelID      int          `json:"channel_id,omitempty"`
	ConversationID int          `json:"conversation_id,omitempty"`
	Text           string       `json:"message,omitempty"`
	Income         bool         `json:"income"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      string       `json:"created_at,omitempty"`
}

// MessageList is one page of messages plus the next-page cursor.
type MessageList struct {
	Messages []Message `json:"messages"`
	NextPage string    `json:"next_page,omitempty"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID  int    `json:"external_id"`
	URL string `json:"url,omitempty"`
}

// Job tracks an asynchronous delivery operation.
type Job struct {
	ID      int    `json:"id"`
	State   string `json:"state"`
	Details string `json:"details,omitempty"`
}

// parseTime parses the timestamp format the platform returns.
// Returns the zero time when the value is empty or malformed.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05 MST", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CreatedAtTime returns the channel creation time, or the zero time.
func (c *Channel) CreatedAtTime() time.Time { return parseTime(c.CreatedAt) }

// CreatedAtTime returns the message creation time, or the zero time.
func (m *Message) CreatedAtTime() time.Time { return parseTime(m.CreatedAt) }

// LastMessageTime returns the time of the last message, or the zero time.
func (c *Conversation) LastMessageTime() time.Time { return parseTime(c.LastMessageAt) }
