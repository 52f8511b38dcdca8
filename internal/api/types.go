// Package api wraps the backend's REST endpoints with typed clients and
// normalizes the backend's loosely specified response shapes into fixed
// internal structs.
package api

import "time"

// User is the authenticated account's profile as the backend reports it.
// Fields are best-effort; a user constructed from login input alone carries
// only Email (and DisplayName on registration).
type User struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Label returns the best display string for the user.
func (u *User) Label() string {
	if u == nil {
		return ""
	}
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}

// AuthResult is the normalized outcome of a login or register call. Token
// may be empty when the backend responded 2xx without any recognized token
// field; callers decide whether that is an error.
type AuthResult struct {
	Token string
	User  *User
}

// Chat is one entry of the chat list.
type Chat struct {
	ID                 string
	Name               string
	LastMessagePreview string
	UnreadCount        int
	IsGroup            bool
}

// Message is one entry of a chat's message list. Optimistic marks a locally
// created message not yet acknowledged by the server.
type Message struct {
	ID                string
	Text              string
	SenderID          string
	SenderDisplayName string
	CreatedAt         time.Time
	Optimistic        bool
}

// Member is one participant of a chat.
type Member struct {
	ID          string
	Email       string
	DisplayName string
}
