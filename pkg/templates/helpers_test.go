package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "Kota Bandung", expected: "Kota Bandung"},
		{name: "abbreviation dot", input: "Kab. Garut", expected: "Kab\\. Garut"},
		{name: "number", input: "1,234.50", expected: "1,234\\.50"},
		{name: "parentheses and sign", input: "(+5%)", expected: "\\(\\+5%\\)"},
		{name: "backslash first", input: `a\b_c`, expected: `a\\b\_c`},
		{name: "invalid utf8 dropped", input: "ok\xff", expected: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeMarkdownV2(tt.input))
		})
	}
}
