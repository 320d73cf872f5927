package session

import (
	chatstrings "github.com/joss/agentchat/internal/strings"
)

// DefaultTitleLimit is the number of runes kept from the first user message.
const DefaultTitleLimit = 30

// TitleFromContent derives a session title from the first user message:
// the content verbatim when it fits in limit runes, otherwise its first
// limit runes followed by "...".
func TitleFromContent(content string, limit int) string {
	return chatstrings.Ellipsize(content, limit)
}
