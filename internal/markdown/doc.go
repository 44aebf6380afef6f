// Package markdown renders values for Telegram MarkdownV2 messages.
//
// Two escaping rules exist because MarkdownV2 reserves different character
// sets inside and outside inline code spans:
//   - Escape: full metacharacter set, for regular text positions
//   - EscapeCode: backtick and backslash only, for code-span positions
//
// Timestamp formats unix seconds as a fixed-width UTC string.
package markdown
