package wa

import (
	"go.mau.fi/whatsmeow/proto/waE2E"

	"wabot/internal/domain"
)

// payloadOf maps a decrypted wire message onto the payload union. Media
// variants carry only their kind; text variants carry the text. An unknown
// variant maps to nil.
func payloadOf(msg *waE2E.Message) domain.Payload {
	if msg == nil {
		return nil
	}
	switch {
	case msg.GetStickerMessage() != nil:
		return domain.MediaPayload{Kind: domain.MediaSticker}
	case msg.GetReactionMessage() != nil:
		return domain.MediaPayload{Kind: domain.MediaReaction}
	case msg.GetImageMessage() != nil:
		return domain.MediaPayload{Kind: domain.MediaImage}
	case msg.GetVideoMessage() != nil:
		return domain.MediaPayload{Kind: domain.MediaVideo}
	case msg.GetAudioMessage() != nil:
		return domain.MediaPayload{Kind: domain.MediaAudio}
	case msg.GetConversation() != "":
		return domain.TextPayload{Text: msg.GetConversation()}
	case msg.GetExtendedTextMessage().GetText() != "":
		return domain.TextPayload{Text: msg.GetExtendedTextMessage().GetText()}
	default:
		return nil
	}
}
