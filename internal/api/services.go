package api

// Service accessors group Client methods by resource.
// Each service embeds *Client so helpers can take the Requester interface.

type ChannelsService struct{ *Client }

type CompaniesService struct{ *Client }

type ConversationsService struct{ *Client }

type MessagesService struct{ *Client }

type JobsService struct{ *Client }

func (c *Client) Channels() ChannelsService {
	return ChannelsService{c}
}

func (c *Client) Companies() CompaniesService {
	return CompaniesService{c}
}

func (c *Client) Conversations() ConversationsService {
	return ConversationsService{c}
}

func (c *Client) Messages() MessagesService {
	return MessagesService{c}
}

func (c *Client) Jobs() JobsService {
	return JobsService{c}
}
