package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// KnownProviders lists the messaging providers the platform supports.
var KnownProviders = []string{
	"whatsapp",
	"instagram",
	"telegram",
	"telegram_personal",
	"viber",
	"vk",
	"facebook",
}

// CreateChannelRequest represents a request to connect a channel with
// provider-specific parameters passed through as-is.
type CreateChannelRequest struct {
	Provider   string
	Parameters map[string]any
}

// WhatsAppChannelOptions holds the optional settings of a WhatsApp channel.
type WhatsAppChannelOptions struct {
	SyncMessagesFrom *time.Time // sync history starting at this moment
	DoNotMarkAsRead  *bool      // leave synced messages unread on the phone
}

// InstagramChannelRequest holds Instagram account credentials and sync settings.
type InstagramChannelRequest struct {
	Login            string
	Password         string
	SyncMessagesFrom *time.Time
	SyncComments     *bool
	SyncDirect       *bool
}

// UpdateInstagramChannelRequest holds replacement Instagram credentials.
type UpdateInstagramChannelRequest struct {
	Login        string
	Password     string
	SyncComments *bool
	SyncDirect   *bool
}

// List retrieves one page of the company's channels.
func (s ChannelsService) List(ctx context.Context, companyID int, opts ListOptions) (*ChannelList, error) {
	return listChannels(ctx, s, companyID, opts)
}

func listChannels(ctx context.Context, r Requester, companyID int, opts ListOptions) (*ChannelList, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var result ChannelList
	if err := r.do(ctx, http.MethodGet, r.companyPath(companyID, "/channels"+opts.query()), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create connects a new channel with arbitrary provider parameters.
func (s ChannelsService) Create(ctx context.Context, companyID int, req CreateChannelRequest) (*Channel, error) {
	return createChannel(ctx, s, companyID, req)
}

func createChannel(ctx context.Context, r Requester, companyID int, req CreateChannelRequest) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("provider", req.Provider); err != nil {
		return nil, err
	}
	body := map[string]any{
		"provider": req.Provider,
	}
	for key, value := range req.Parameters {
		body[key] = value
	}
	return postChannel(ctx, r, companyID, body)
}

// CreateByToken connects a token-authenticated provider (telegram, viber, ...).
func (s ChannelsService) CreateByToken(ctx context.Context, companyID int, provider, token string) (*Channel, error) {
	return createChannelByToken(ctx, s, companyID, provider, token)
}

func createChannelByToken(ctx context.Context, r Requester, companyID int, provider, token string) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("provider", provider); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("token", token); err != nil {
		return nil, err
	}
	body := map[string]any{
		"provider": provider,
		"token":    token,
	}
	return postChannel(ctx, r, companyID, body)
}

// CreateWhatsApp connects a WhatsApp channel.
func (s ChannelsService) CreateWhatsApp(ctx context.Context, companyID int, opts WhatsAppChannelOptions) (*Channel, error) {
	return createChannelWhatsApp(ctx, s, companyID, opts)
}

func createChannelWhatsApp(ctx context.Context, r Requester, companyID int, opts WhatsAppChannelOptions) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	body := map[string]any{
		"provider": "whatsapp",
	}
	if opts.SyncMessagesFrom != nil {
		body["sync_messages_from"] = opts.SyncMessagesFrom.Unix()
	}
	if opts.DoNotMarkAsRead != nil {
		body["do_not_mark_as_read"] = *opts.DoNotMarkAsRead
	}
	return postChannel(ctx, r, companyID, body)
}

// CreateInstagram connects an Instagram channel.
func (s ChannelsService) CreateInstagram(ctx context.Context, companyID int, req InstagramChannelRequest) (*Channel, error) {
	return createChannelInstagram(ctx, s, companyID, req)
}

func createChannelInstagram(ctx context.Context, r Requester, companyID int, req InstagramChannelRequest) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("login", req.Login); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("password", req.Password); err != nil {
		return nil, err
	}
	body := map[string]any{
		"provider": "instagram",
		"login":    req.Login,
		"password": req.Password,
	}
	if req.SyncMessagesFrom != nil {
		body["sync_messages_from"] = req.SyncMessagesFrom.Unix()
	}
	if req.SyncComments != nil {
		body["sync_comments"] = *req.SyncComments
	}
	if req.SyncDirect != nil {
		body["sync_direct"] = *req.SyncDirect
	}
	return postChannel(ctx, r, companyID, body)
}

func postChannel(ctx context.Context, r Requester, companyID int, body map[string]any) (*Channel, error) {
	var result Channel
	if err := r.do(ctx, http.MethodPost, r.companyPath(companyID, "/channels"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update replaces channel fields with arbitrary provider parameters.
func (s ChannelsService) Update(ctx context.Context, companyID, conversationID int, fields map[string]any) (*Channel, error) {
	return updateChannel(ctx, s, companyID, conversationID, fields)
}

func updateChannel(ctx context.Context, r Requester, companyID, conversationID int, fields map[string]any) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	body := map[string]any{}
	for key, value := range fields {
		body[key] = value
	}
	return putChannel(ctx, r, companyID, conversationID, body)
}

// UpdateByToken replaces the access token of a token-authenticated channel.
func (s ChannelsService) UpdateByToken(ctx context.Context, companyID, conversationID int, token string) (*Channel, error) {
	return updateChannelByToken(ctx, s, companyID, conversationID, token)
}

func updateChannelByToken(ctx context.Context, r Requester, companyID, conversationID int, token string) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("token", token); err != nil {
		return nil, err
	}
	body := map[string]any{
		"token": token,
	}
	return putChannel(ctx, r, companyID, conversationID, body)
}

// UpdateInstagram replaces the credentials of an Instagram channel.
func (s ChannelsService) UpdateInstagram(ctx context.Context, companyID, conversationID int, req UpdateInstagramChannelRequest) (*Channel, error) {
	return updateChannelInstagram(ctx, s, companyID, conversationID, req)
}

func updateChannelInstagram(ctx context.Context, r Requester, companyID, conversationID int, req UpdateInstagramChannelRequest) (*Channel, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateConversationID(conversationID); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("login", req.Login); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("password", req.Password); err != nil {
		return nil, err
	}
	body := map[string]any{
		"login":    req.Login,
		"password": req.Password,
	}
	if req.SyncComments != nil {
		body["sync_comments"] = *req.SyncComments
	}
	if req.SyncDirect != nil {
		body["sync_direct"] = *req.SyncDirect
	}
	return putChannel(ctx, r, companyID, conversationID, body)
}

func putChannel(ctx context.Context, r Requester, companyID, conversationID int, body map[string]any) (*Channel, error) {
	var result Channel
	if err := r.do(ctx, http.MethodPut, r.companyPath(companyID, fmt.Sprintf("/channels/%d", conversationID)), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
