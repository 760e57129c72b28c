package conversation

import (
	"pawfect/internal/config"
)

// DeriveTitle builds a conversation title from the first message of a thread.
// Content up to config.TitleMaxLength characters is used verbatim; longer
// content is cut to that many characters and suffixed with config.TitleEllipsis.
// Length is counted in runes so multi-byte text is never split mid-character.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= config.TitleMaxLength {
		return content
	}
	return string(runes[:config.TitleMaxLength]) + config.TitleEllipsis
}
