package api

import (
	"context"
	"fmt"
	"net/http"
)

// CreateConversationRequest represents a request to open a conversation
// with an end user identified by a provider-specific address.
type CreateConversationRequest struct {
	Provider string // messaging provider the conversation runs over
	Phone    string // recipient address, e.g. a phone number for whatsapp
}

// List retrieves one page of the company's conversations.
func (s ConversationsService) List(ctx context.Context, companyID int, opts ListOptions) (*ConversationList, error) {
	return listConversations(ctx, s, companyID, opts)
}

func listConversations(ctx context.Context, r Requester, companyID int, opts ListOptions) (*ConversationList, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var result ConversationList
	if err := r.do(ctx, http.MethodGet, r.companyPath(companyID, "/conversations"+opts.query()), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get retrieves a single conversation by id.
func (s ConversationsService) Get(ctx context.Context, companyID, conversationID int) (*Conversation, error) {
	return getConversation(ctx, s, companyID, conversationID)
}

func getConversation(ctx context.Context, r Requester, companyID, conversationID int) (*Conversation, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	var result struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := r.do(ctx, http.MethodGet, r.companyPath(companyID, fmt.Sprintf("/conversations/%d", conversationID)), nil, &result); err != nil {
		return nil, err
	}
	return &result.Conversation, nil
}

// Create opens a new conversation with an end user.
func (s ConversationsService) Create(ctx context.Context, companyID int, req CreateConversationRequest) (*Conversation, error) {
	return createConversation(ctx, s, companyID, req)
}

func createConversation(ctx context.Context, r Requester, companyID int, req CreateConversationRequest) (*Conversation, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("provider", req.Provider); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("phone", req.Phone); err != nil {
		return nil, err
	}
	body := map[string]any{
		"provider": req.Provider,
		"phone":    req.Phone,
	}
	var result struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := r.do(ctx, http.MethodPost, r.companyPath(companyID, "/conversations"), body, &result); err != nil {
		return nil, err
	}
	return &result.Conversation, nil
}
