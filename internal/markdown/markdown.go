package markdown

import (
	"strings"
	"time"
)

// specials is the set of characters Telegram MarkdownV2 treats as formatting
// metacharacters outside code spans.
const specials = "_*[]()~`>#+-=|{}.!"

// Escape backslash-escapes every MarkdownV2 metacharacter in text. It must be
// applied to any untrusted value rendered outside a code span. Escape is not
// idempotent: running it over already-escaped text double-escapes.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeCode escapes text for use inside an inline code span. Code spans
// suppress all other formatting, so only backticks and backslashes are
// significant there.
func EscapeCode(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '`' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Timestamp renders a unix-seconds value as "YYYY-MM-DD HH:MM:SS UTC".
// The rendering is literal UTC and needs no timezone database. Pre-epoch
// inputs are out of contract.
func Timestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05") + " UTC"
}
