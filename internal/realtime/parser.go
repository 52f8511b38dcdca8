package realtime

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// MessageEvent is the normalized payload of a MessageReceived push. The hub
// is loose about key names, so the parser accepts the known variants.
type MessageEvent struct {
	ChatID            string
	ID                string
	Text              string
	SenderID          string
	SenderDisplayName string
	CreatedAt         time.Time
}

// ParseMessageEvent normalizes a raw event payload. Returns nil when the
// payload has no chat identifier; a message that cannot be attributed to a
// chat is useless to the client.
func ParseMessageEvent(raw json.RawMessage) *MessageEvent {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	chatID := pick(obj, "chatId", "ChatId")
	if chatID == "" {
		return nil
	}

	evt := &MessageEvent{
		ChatID:            chatID,
		ID:                pick(obj, "id"),
		Text:              pick(obj, "text", "message"),
		SenderID:          pick(obj, "senderId", "userId"),
		SenderDisplayName: pick(obj, "senderDisplayName", "sender"),
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.SenderDisplayName == "" {
		evt.SenderDisplayName = "User"
	}
	if ts := pick(obj, "createdAt"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			evt.CreatedAt = t
		}
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	return evt
}

// pick returns the first non-empty value among the given keys, stringifying
// numeric ids.
func pick(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
