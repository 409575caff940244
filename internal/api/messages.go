package api

import (
	"context"
	"fmt"
	"net/http"
)

// SendMessageRequest represents an outgoing message. Text may be empty for
// attachment-only messages, but at least one of Text or AttachmentIDs must
// be present.
type SendMessageRequest struct {
	Text          string
	AttachmentIDs []int
}

// SendMessageResult reports the id of the accepted message and the
// delivery job tracking it.
type SendMessageResult struct {
	ID    int `json:"external_id"`
	JobID int `json:"job_id,omitempty"`
}

// List retrieves one page of a conversation's messages.
func (s MessagesService) List(ctx context.Context, companyID, conversationID int, opts ListOptions) (*MessageList, error) {
	return listMessages(ctx, s, companyID, conversationID, opts)
}

func listMessages(ctx context.Context, r Requester, companyID, conversationID int, opts ListOptions) (*MessageList, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	var result MessageList
	if err := r.do(ctx, http.MethodGet, r.companyPath(companyID, path+opts.query()), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Send queues an outgoing message for delivery.
func (s MessagesService) Send(ctx context.Context, companyID, conversationID int, req SendMessageRequest) (*SendMessageResult, error) {
	return sendMessage(ctx, s, companyID, conversationID, req)
}

func sendMessage(ctx context.Context, r Requester, companyID, conversationID int, req SendMessageRequest) (*SendMessageResult, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	if req.Text == "" && len(req.AttachmentIDs) == 0 {
		return nil, newValidationError("message", "must carry text or at least one attachment")
	}
	body := map[string]any{}
	if req.Text != "" {
		body["message"] = req.Text
	}
	if len(req.AttachmentIDs) > 0 {
		body["attachments_ids"] = req.AttachmentIDs
	}
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	var result SendMessageResult
	if err := r.do(ctx, http.MethodPost, r.companyPath(companyID, path), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadAttachment uploads a file for later use in Send.
func (s MessagesService) UploadAttachment(ctx context.Context, companyID, conversationID int, filename string, content []byte) (*Attachment, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("filename", filename); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/conversations/%d/messages/attachments", conversationID)
	var result Attachment
	if err := s.PostMultipart(ctx, companyID, path, nil, map[string][]byte{filename: content}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
