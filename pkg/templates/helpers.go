package templates

import (
	"strings"
)

var markdownV2Replacer = strings.NewReplacer(
	"\\", "\\\\", // backslash first
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes every character Telegram MarkdownV2 reserves outside entities
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(strings.ToValidUTF8(text, ""))
}
