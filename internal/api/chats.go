package api

import (
	"context"
	"net/url"

	"github.com/securechat/msgr/internal/rest"
)

// ChatClient wraps the /chats endpoints.
type ChatClient struct {
	gw *rest.Gateway
}

// NewChatClient creates a chat client on the given gateway.
func NewChatClient(gw *rest.Gateway) *ChatClient {
	return &ChatClient{gw: gw}
}

// ListChats returns the user's chats.
func (c *ChatClient) ListChats(ctx context.Context, token string) ([]Chat, error) {
	data, err := c.gw.Get(ctx, "/chats", rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeChatList(data), nil
}

// CreateChat creates a group chat and returns the created record.
func (c *ChatClient) CreateChat(ctx context.Context, token, name string, memberEmails []string) (*Chat, error) {
	data, err := c.gw.Post(ctx, "/chats", map[string]any{
		"name":         name,
		"memberEmails": memberEmails,
	}, rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeChat(data), nil
}

// ListMessages returns the messages of one chat.
func (c *ChatClient) ListMessages(ctx context.Context, token, chatID string) ([]Message, error) {
	data, err := c.gw.Get(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeMessageList(data), nil
}

// SendMessage posts a message. A nil message with nil error means the server
// acknowledged without returning the stored record.
func (c *ChatClient) SendMessage(ctx context.Context, token, chatID, text string) (*Message, error) {
	data, err := c.gw.Post(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", map[string]string{
		"text": text,
	}, rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeMessage(data), nil
}

// ListMembers returns the members of one chat.
func (c *ChatClient) ListMembers(ctx context.Context, token, chatID string) ([]Member, error) {
	data, err := c.gw.Get(ctx, "/chats/"+url.PathEscape(chatID)+"/members", rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeMemberList(data), nil
}

// AddMember adds a member by email.
func (c *ChatClient) AddMember(ctx context.Context, token, chatID, email string) error {
	_, err := c.gw.Post(ctx, "/chats/"+url.PathEscape(chatID)+"/members", map[string]string{
		"email": email,
	}, rest.Options{Token: token})
	return err
}

// RemoveMember removes a member by user id.
func (c *ChatClient) RemoveMember(ctx context.Context, token, chatID, userID string) error {
	_, err := c.gw.Delete(ctx, "/chats/"+url.PathEscape(chatID)+"/members/"+url.PathEscape(userID), rest.Options{Token: token})
	return err
}
