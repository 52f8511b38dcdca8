// Package conversation merges the three sources of chat state — REST
// responses, realtime pushes, and locally originated optimistic sends —
// into one consistent view for the UI.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/securechat/msgr/internal/api"
	"github.com/securechat/msgr/internal/bus"
	"github.com/securechat/msgr/internal/realtime"
	"go.uber.org/zap"
)

// chatListNotice is informational, not an error: the backend may simply not
// implement the chat endpoints yet.
const chatListNotice = "Chat list unavailable; the backend may not expose chat endpoints yet."

// ChatAPI is the slice of the backend the coordinator needs.
type ChatAPI interface {
	ListChats(ctx context.Context, token string) ([]api.Chat, error)
	CreateChat(ctx context.Context, token, name string, memberEmails []string) (*api.Chat, error)
	ListMessages(ctx context.Context, token, chatID string) ([]api.Message, error)
	SendMessage(ctx context.Context, token, chatID, text string) (*api.Message, error)
	ListMembers(ctx context.Context, token, chatID string) ([]api.Member, error)
	AddMember(ctx context.Context, token, chatID, email string) error
	RemoveMember(ctx context.Context, token, chatID, userID string) error
}

// Channel is the realtime subscription surface the coordinator drives.
type Channel interface {
	JoinChat(chatID string)
	LeaveChat(chatID string)
}

// SessionSource supplies the current token and user.
type SessionSource interface {
	Token() string
	User() *api.User
}

// Coordinator owns the chat list, the active chat id, and the active chat's
// message list. It consumes rt.message events from the bus and publishes
// conv.updated whenever its state changes. Realtime messages are NOT
// deduplicated against REST-fetched ones; an event for a message already
// delivered via REST appears twice.
type Coordinator struct {
	chatAPI ChatAPI
	channel Channel
	session SessionSource
	bus     *bus.Bus
	logger  *zap.Logger

	mu         sync.RWMutex
	chats      []api.Chat
	activeChat string
	messages   []api.Message
	notice     string
	fetchGen   uint64

	cancel context.CancelFunc
}

// New creates a coordinator. Call Start to begin consuming realtime events.
func New(chatAPI ChatAPI, channel Channel, session SessionSource, b *bus.Bus, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		chatAPI: chatAPI,
		channel: channel,
		session: session,
		bus:     b,
		logger:  logger,
	}
}

// Start subscribes to realtime events on the bus.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	ch, unsub := c.bus.Subscribe("rt.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if evt.Kind != bus.KindRealtimeMessage {
					continue
				}
				if msg, ok := evt.Payload.(*realtime.MessageEvent); ok {
					c.handleRealtimeMessage(msg)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops consuming realtime events.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// LoadChats fetches the chat list. Failure leaves the list empty and sets an
// informational notice instead of surfacing an error. When no chat is active
// yet, the first one becomes active.
func (c *Coordinator) LoadChats(ctx context.Context) {
	chats, err := c.chatAPI.ListChats(ctx, c.session.Token())

	c.mu.Lock()
	if err != nil {
		c.logger.Info("chat list fetch failed", zap.Error(err))
		c.chats = nil
		c.notice = chatListNotice
	} else {
		c.chats = chats
		c.notice = ""
	}
	activate := ""
	if c.activeChat == "" && len(c.chats) > 0 {
		activate = c.chats[0].ID
	}
	c.mu.Unlock()

	c.publishUpdated()
	if activate != "" {
		c.SetActiveChat(ctx, activate)
	}
}

// SetActiveChat switches focus: a leave/join pair keeps server-side scoping
// aligned, then the chat's messages are fetched. A fetch failure resets to
// an empty list silently. Responses are generation-tagged so a late response
// for a previously active chat cannot overwrite the newer chat's list.
func (c *Coordinator) SetActiveChat(ctx context.Context, chatID string) {
	c.mu.Lock()
	prev := c.activeChat
	if prev == chatID {
		c.mu.Unlock()
		return
	}
	c.activeChat = chatID
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	if prev != "" {
		c.channel.LeaveChat(prev)
	}
	if chatID != "" {
		c.channel.JoinChat(chatID)
	}

	var msgs []api.Message
	if chatID != "" {
		fetched, err := c.chatAPI.ListMessages(ctx, c.session.Token(), chatID)
		if err != nil {
			c.logger.Info("message list fetch failed", zap.String("chat", chatID), zap.Error(err))
		} else {
			msgs = fetched
		}
	}

	c.mu.Lock()
	if gen != c.fetchGen {
		// A newer switch happened while this fetch was in flight.
		c.mu.Unlock()
		return
	}
	c.messages = msgs
	c.mu.Unlock()
	c.publishUpdated()
}

// handleRealtimeMessage appends the message when its chat is active and
// updates that chat's preview either way.
func (c *Coordinator) handleRealtimeMessage(evt *realtime.MessageEvent) {
	c.mu.Lock()
	if evt.ChatID == c.activeChat && c.activeChat != "" {
		c.messages = append(c.messages, api.Message{
			ID:                evt.ID,
			Text:              evt.Text,
			SenderID:          evt.SenderID,
			SenderDisplayName: evt.SenderDisplayName,
			CreatedAt:         evt.CreatedAt,
		})
	}
	if evt.Text != "" {
		for i := range c.chats {
			if c.chats[i].ID == evt.ChatID {
				c.chats[i].LastMessagePreview = evt.Text
				break
			}
		}
	}
	c.mu.Unlock()
	c.publishUpdated()
}

// Send appends an optimistic message immediately, then calls the backend.
// Success replaces the optimistic entry in place with the server's record
// (or leaves it when the server returns no body) and updates the chat
// preview; failure removes the optimistic entry and returns the error.
func (c *Coordinator) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	chatID := c.activeChat
	if chatID == "" {
		c.mu.Unlock()
		return nil
	}
	user := c.session.User()
	optimistic := api.Message{
		ID:                "local-" + uuid.NewString(),
		Text:              text,
		SenderID:          senderID(user),
		SenderDisplayName: senderLabel(user),
		CreatedAt:         time.Now(),
		Optimistic:        true,
	}
	c.messages = append(c.messages, optimistic)
	c.mu.Unlock()
	c.publishUpdated()

	msg, err := c.chatAPI.SendMessage(ctx, c.session.Token(), chatID, text)
	if err != nil {
		c.removeMessage(optimistic.ID)
		c.bus.Publish(bus.Event{Kind: bus.KindConvMessageSendFailed, Payload: err.Error()})
		c.publishUpdated()
		return err
	}

	c.mu.Lock()
	if msg != nil {
		for i := range c.messages {
			if c.messages[i].ID == optimistic.ID {
				c.messages[i] = *msg
				break
			}
		}
	}
	for i := range c.chats {
		if c.chats[i].ID == chatID {
			c.chats[i].LastMessagePreview = text
			break
		}
	}
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Kind: bus.KindConvMessageAck, Payload: optimistic.ID})
	c.publishUpdated()
	return nil
}

// CreateChat creates a group, prepends it to the list, and makes it active.
func (c *Coordinator) CreateChat(ctx context.Context, name string, memberEmails []string) error {
	chat, err := c.chatAPI.CreateChat(ctx, c.session.Token(), name, memberEmails)
	if err != nil {
		return err
	}
	if chat == nil {
		return nil
	}

	c.mu.Lock()
	c.chats = append([]api.Chat{*chat}, c.chats...)
	c.mu.Unlock()
	c.publishUpdated()

	c.SetActiveChat(ctx, chat.ID)
	return nil
}

// Members lists the active chat's members.
func (c *Coordinator) Members(ctx context.Context) ([]api.Member, error) {
	chatID := c.ActiveChatID()
	if chatID == "" {
		return nil, nil
	}
	return c.chatAPI.ListMembers(ctx, c.session.Token(), chatID)
}

// AddMember adds a member to the active chat by email.
func (c *Coordinator) AddMember(ctx context.Context, email string) error {
	chatID := c.ActiveChatID()
	if chatID == "" {
		return nil
	}
	return c.chatAPI.AddMember(ctx, c.session.Token(), chatID, email)
}

// RemoveMember removes a member from the active chat by user id.
func (c *Coordinator) RemoveMember(ctx context.Context, userID string) error {
	chatID := c.ActiveChatID()
	if chatID == "" {
		return nil
	}
	return c.chatAPI.RemoveMember(ctx, c.session.Token(), chatID, userID)
}

// Chats returns a snapshot of the chat list.
func (c *Coordinator) Chats() []api.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Chat, len(c.chats))
	copy(out, c.chats)
	return out
}

// Messages returns a snapshot of the active chat's messages.
func (c *Coordinator) Messages() []api.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ActiveChatID returns the active chat's id ("" when none).
func (c *Coordinator) ActiveChatID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeChat
}

// ActiveChat returns a copy of the active chat, or nil.
func (c *Coordinator) ActiveChat() *api.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.chats {
		if c.chats[i].ID == c.activeChat {
			chat := c.chats[i]
			return &chat
		}
	}
	return nil
}

// Notice returns the current informational notice ("" when none).
func (c *Coordinator) Notice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notice
}

func (c *Coordinator) removeMessage(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) publishUpdated() {
	c.bus.Publish(bus.Event{Kind: bus.KindConvUpdated})
}

func senderID(u *api.User) string {
	if u != nil && u.ID != "" {
		return u.ID
	}
	return "me"
}

func senderLabel(u *api.User) string {
	if label := u.Label(); label != "" {
		return label
	}
	return "Me"
}
