package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_ParseCommand(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantIsCommand bool
		wantCommand   string
		wantArgs      string
	}{
		{name: "simple command", text: "/start", wantIsCommand: true, wantCommand: "start"},
		{name: "command with args", text: "/risiko Kota Bandung", wantIsCommand: true, wantCommand: "risiko", wantArgs: "Kota Bandung"},
		{name: "extra whitespace", text: "/risiko   Kab.  Garut ", wantIsCommand: true, wantCommand: "risiko", wantArgs: "Kab. Garut"},
		{name: "command with @botname", text: "/wilayah@DbdBot", wantIsCommand: true, wantCommand: "wilayah"},
		{name: "@botname and args", text: "/risiko@DbdBot Depok", wantIsCommand: true, wantCommand: "risiko", wantArgs: "Depok"},
		{name: "regular text", text: "Kota Bandung"},
		{name: "lone slash", text: "/", wantIsCommand: true},
		{name: "empty text", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{Text: tt.text}
			msg.ParseCommand()

			assert.Equal(t, tt.wantIsCommand, msg.IsCommand)
			assert.Equal(t, tt.wantCommand, msg.Command)
			assert.Equal(t, tt.wantArgs, msg.Arguments)
		})
	}
}

func TestMessage_ParseCommandNil(t *testing.T) {
	var m *Message
	assert.NotPanics(t, func() { m.ParseCommand() })
}
