package slack

import (
	"context"
	"net/url"

	"deskbridge/internal/domain/chat"
)

// RelayEventType tags messages the bridge posts so their echoes can be
// recognised without inspecting the text.
const RelayEventType = "deskbridge_relay"

type messageMetadata struct {
	EventType    string         `json:"event_type"`
	EventPayload map[string]any `json:"event_payload"`
}

type postMessageRequest struct {
	Channel     string           `json:"channel"`
	Text        string           `json:"text"`
	ThreadTS    string           `json:"thread_ts,omitempty"`
	User        string           `json:"user,omitempty"`
	UnfurlLinks bool             `json:"unfurl_links"`
	Metadata    *messageMetadata `json:"metadata,omitempty"`
}

type postMessageResponse struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// PostThreadMessage posts text as a reply in the thread rooted at threadTS.
// The message carries relay metadata.
func (c *Client) PostThreadMessage(ctx context.Context, channelID, threadTS, text string) error {
	body := postMessageRequest{
		Channel:  channelID,
		ThreadTS: threadTS,
		Text:     text,
		Metadata: &messageMetadata{
			EventType:    RelayEventType,
			EventPayload: map[string]any{"source": "zendesk"},
		},
	}
	return c.call(ctx, request{method: "chat.postMessage", json: body, rateKey: postKey(channelID), write: true}, nil)
}

// PostMessage posts a top-level message and returns its timestamp.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	var resp postMessageResponse
	body := postMessageRequest{Channel: channelID, Text: text}
	if err := c.call(ctx, request{method: "chat.postMessage", json: body, rateKey: postKey(channelID), write: true}, &resp); err != nil {
		return "", err
	}
	return resp.TS, nil
}

// PostEphemeral shows text to a single user, inside the thread when threadTS is set.
func (c *Client) PostEphemeral(ctx context.Context, channelID, userID, threadTS, text string) error {
	body := postMessageRequest{
		Channel:  channelID,
		User:     userID,
		ThreadTS: threadTS,
		Text:     text,
	}
	return c.call(ctx, request{method: "chat.postEphemeral", json: body, rateKey: postKey(channelID), write: true}, nil)
}

// GetPermalink returns the permanent URL of a message.
func (c *Client) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	var resp struct {
		Permalink string `json:"permalink"`
	}
	form := url.Values{"channel": {channelID}, "message_ts": {messageTS}}
	if err := c.call(ctx, request{method: "chat.getPermalink", form: form}, &resp); err != nil {
		return "", err
	}
	return resp.Permalink, nil
}

// ChannelName returns the channel's name without the leading '#'.
func (c *Client) ChannelName(ctx context.Context, channelID string) (string, error) {
	var resp struct {
		Channel struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"channel"`
	}
	form := url.Values{"channel": {channelID}}
	if err := c.call(ctx, request{method: "conversations.info", form: form}, &resp); err != nil {
		return "", err
	}
	return resp.Channel.Name, nil
}

type userInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	IsBot    bool   `json:"is_bot"`
	Profile  struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
		Email       string `json:"email"`
	} `json:"profile"`
}

func (u userInfo) toProfile() *chat.UserProfile {
	realName := u.Profile.RealName
	if realName == "" {
		realName = u.RealName
	}
	return &chat.UserProfile{
		ID:          u.ID,
		DisplayName: u.Profile.DisplayName,
		RealName:    realName,
		Email:       u.Profile.Email,
		IsBot:       u.IsBot,
	}
}

// GetUser fetches a user's profile with users.info.
func (c *Client) GetUser(ctx context.Context, userID string) (*chat.UserProfile, error) {
	var resp struct {
		User userInfo `json:"user"`
	}
	form := url.Values{"user": {userID}}
	if err := c.call(ctx, request{method: "users.info", form: form}, &resp); err != nil {
		return nil, err
	}
	if resp.User.ID == "" {
		resp.User.ID = userID
	}
	return resp.User.toProfile(), nil
}

func postKey(channelID string) string {
	return "slack:" + channelID
}
