package domain

// ReplyKind is the delivery type of a stored FAQ answer.
type ReplyKind string

const (
	ReplyText     ReplyKind = "text"
	ReplyImage    ReplyKind = "image"
	ReplyDocument ReplyKind = "document"
)

// ParseReplyKind maps the store's kind values (Spanish, from the legacy
// schema) to a ReplyKind. Unknown values degrade to plain text.
func ParseReplyKind(s string) ReplyKind {
	switch s {
	case "imagen", "image":
		return ReplyImage
	case "pdf", "documento", "document":
		return ReplyDocument
	default:
		return ReplyText
	}
}

// ReplyRecord is a single best-match FAQ answer. FilePaths is the raw
// comma-delimited path list for image records, or a single path for
// document records; empty for text records.
type ReplyRecord struct {
	Kind      ReplyKind
	Body      string
	FilePaths string
}
