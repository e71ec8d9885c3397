package domain

import "time"

// Event is the closed union of everything the dispatcher consumes: transport
// lifecycle changes, inbound messages, and operator console input.
type Event interface {
	isEvent()
}

// SessionConnected is emitted when the WhatsApp session is open.
type SessionConnected struct{}

// SessionClosed is emitted when the WhatsApp session drops. LoggedOut means
// the server invalidated the session (remote logout / 401) and stored
// credentials are no longer usable.
type SessionClosed struct {
	Code      int
	LoggedOut bool
}

// SessionPaired is emitted after a successful QR pairing, once the new device
// credentials have been persisted.
type SessionPaired struct {
	Device string
}

// MessageReceived is one inbound WhatsApp message, already converted to the
// Payload union at the transport boundary.
type MessageReceived struct {
	Sender    string // sender address, e.g. 5215512345678@s.whatsapp.net
	Chat      string // chat address the message arrived in
	FromMe    bool
	Payload   Payload
	Timestamp time.Time
}

// ConsoleLine is one line of operator input.
type ConsoleLine struct {
	Text string
}

func (SessionConnected) isEvent() {}
func (SessionClosed) isEvent()    {}
func (SessionPaired) isEvent()    {}
func (MessageReceived) isEvent()  {}
func (ConsoleLine) isEvent()      {}

// Payload is the closed union of message content kinds. A nil Payload means
// the event carried nothing resolvable (protocol noise, receipts, etc.).
type Payload interface {
	isPayload()
}

// TextPayload is a plain conversation or extended-text message body.
type TextPayload struct {
	Text string
}

// MediaKind enumerates the non-text payloads the bot recognizes but never
// extracts content from.
type MediaKind string

const (
	MediaSticker  MediaKind = "sticker"
	MediaReaction MediaKind = "reaction"
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
)

// MediaPayload marks a message as media-only.
type MediaPayload struct {
	Kind MediaKind
}

func (TextPayload) isPayload()  {}
func (MediaPayload) isPayload() {}
