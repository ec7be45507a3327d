package telegram

import "strings"

// Update is an incoming Telegram update, decoupled from the API client types
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is a Telegram text message
type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat"`
	Text      string `json:"text,omitempty"`
	IsCommand bool   `json:"-"`
	Command   string `json:"-"` // without the leading slash or @botname
	Arguments string `json:"-"`
}

// User is a Telegram user
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat is a Telegram chat
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// HasMessage checks if update contains a message
func (u *Update) HasMessage() bool {
	return u.Message != nil
}

// ParseCommand fills IsCommand, Command and Arguments from Text.
// Accepts "/cmd args" and "/cmd@botname args".
func (m *Message) ParseCommand() {
	if m == nil || !strings.HasPrefix(m.Text, "/") {
		return
	}
	m.IsCommand = true

	parts := strings.Fields(m.Text[1:])
	if len(parts) == 0 {
		return
	}

	cmd := parts[0]
	if at := strings.IndexByte(cmd, '@'); at != -1 {
		cmd = cmd[:at]
	}
	m.Command = cmd
	m.Arguments = strings.Join(parts[1:], " ")
}
