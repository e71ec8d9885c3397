// Package classifier filters raw transport events down to actionable
// personal text messages.
package classifier

import (
	"strings"

	"github.com/forPelevin/gomoji"

	"wabot/internal/domain"
)

// Result is the classification outcome for one inbound message.
type Result struct {
	Sender string
	Text   string
}

// Classify applies the admission rules in order, first match wins. ok is
// false for everything the bot must ignore.
func Classify(msg domain.MessageReceived) (Result, bool) {
	if msg.Payload == nil || msg.FromMe {
		return Result{}, false
	}
	if domain.IsGroupAddress(msg.Chat) {
		return Result{}, false
	}
	if !domain.IsPersonalAddress(msg.Chat) {
		return Result{}, false
	}

	text, ok := msg.Payload.(domain.TextPayload)
	if !ok {
		// Stickers, reactions, images, video, audio: no text extraction.
		return Result{}, false
	}

	trimmed := strings.TrimSpace(text.Text)
	if trimmed == "" {
		return Result{}, false
	}
	if emojiOnly(trimmed) {
		return Result{}, false
	}

	return Result{Sender: msg.Sender, Text: trimmed}, true
}

// emojiOnly reports whether s consists entirely of emoji sequences.
func emojiOnly(s string) bool {
	return strings.TrimSpace(gomoji.RemoveEmojis(s)) == ""
}
