package api

import (
	"encoding/json"
	"strconv"
	"time"
)

// The backend's response shapes are not pinned down: tokens and users appear
// under several field names, and lists come either as bare arrays or wrapped
// in an envelope. One normalizer per endpoint shape converts whatever arrived
// into the fixed structs of this package. Unrecognized input normalizes to
// zero values, never panics.

// normalizeAuth extracts token and user from a login/register response.
// Recognized token fields, in order: token, accessToken, jwt. Recognized
// user fields: user, profile.
func normalizeAuth(data any) AuthResult {
	obj, ok := data.(map[string]any)
	if !ok {
		return AuthResult{}
	}

	var result AuthResult
	for _, key := range []string{"token", "accessToken", "jwt"} {
		if s, ok := obj[key].(string); ok && s != "" {
			result.Token = s
			break
		}
	}
	for _, key := range []string{"user", "profile"} {
		if u := normalizeUser(obj[key]); u != nil {
			result.User = u
			break
		}
	}
	return result
}

// normalizeUser converts a user record. A /auth/me response may carry the
// record directly or wrapped in a "user" field; both are accepted.
func normalizeUser(data any) *User {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := obj["user"].(map[string]any); ok {
		obj = inner
	}
	u := &User{
		ID:          stringField(obj, "id"),
		Email:       stringField(obj, "email"),
		DisplayName: stringField(obj, "displayName"),
		Name:        stringField(obj, "name"),
	}
	if *u == (User{}) {
		return nil
	}
	return u
}

// normalizeChatList accepts a bare array or an {items|chats: array} envelope.
func normalizeChatList(data any) []Chat {
	items := unwrapList(data, "items", "chats")
	chats := make([]Chat, 0, len(items))
	for _, item := range items {
		if c := normalizeChat(item); c != nil {
			chats = append(chats, *c)
		}
	}
	return chats
}

// normalizeChat accepts a chat record or a {chat: record} envelope.
func normalizeChat(data any) *Chat {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := obj["chat"].(map[string]any); ok {
		obj = inner
	}
	id := stringField(obj, "id")
	if id == "" {
		return nil
	}
	return &Chat{
		ID:                 id,
		Name:               stringField(obj, "name"),
		LastMessagePreview: stringField(obj, "lastMessagePreview"),
		UnreadCount:        intField(obj, "unreadCount"),
		IsGroup:            boolField(obj, "isGroup"),
	}
}

// normalizeMessageList accepts a bare array or an {items|messages: array}
// envelope.
func normalizeMessageList(data any) []Message {
	items := unwrapList(data, "items", "messages")
	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		if m := normalizeMessage(item); m != nil {
			msgs = append(msgs, *m)
		}
	}
	return msgs
}

// normalizeMessage accepts a message record or a {message: record} envelope.
func normalizeMessage(data any) *Message {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := obj["message"].(map[string]any); ok {
		obj = inner
	}
	text := stringField(obj, "text")
	if text == "" {
		text = stringField(obj, "message")
	}
	sender := stringField(obj, "senderDisplayName")
	if sender == "" {
		sender = stringField(obj, "sender")
	}
	senderID := stringField(obj, "senderId")
	if senderID == "" {
		senderID = stringField(obj, "userId")
	}
	id := stringField(obj, "id")
	if id == "" && text == "" {
		return nil
	}
	return &Message{
		ID:                id,
		Text:              text,
		SenderID:          senderID,
		SenderDisplayName: sender,
		CreatedAt:         timeField(obj, "createdAt"),
	}
}

// normalizeMemberList accepts a bare array or a {members|items: array}
// envelope.
func normalizeMemberList(data any) []Member {
	items := unwrapList(data, "members", "items")
	members := make([]Member, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m := Member{
			ID:          stringField(obj, "id"),
			Email:       stringField(obj, "email"),
			DisplayName: stringField(obj, "displayName"),
		}
		if m.ID == "" && m.Email == "" {
			continue
		}
		members = append(members, m)
	}
	return members
}

// unwrapList returns the slice in data, looking through the given envelope
// keys when data is an object.
func unwrapList(data any, keys ...string) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range keys {
			if list, ok := v[key].([]any); ok {
				return list
			}
		}
	}
	return nil
}

// stringField reads a field as string, converting JSON numbers (ids often
// arrive as numbers) and anything else stringable.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func boolField(obj map[string]any, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

func timeField(obj map[string]any, key string) time.Time {
	s, _ := obj[key].(string)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
