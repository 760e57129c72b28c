package config

const (
	// TitleMaxLength is the number of characters (runes) kept from the first
	// message when deriving a conversation title.
	TitleMaxLength = 60

	// TitleEllipsis is appended to titles that were cut at TitleMaxLength.
	TitleEllipsis = "..."

	// MaxMessageContentLength is the maximum length of a single message's content.
	MaxMessageContentLength = 32000

	// LLMMaxTokens is the generation cap sent with every completion request.
	LLMMaxTokens = 1024
)
