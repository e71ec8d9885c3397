package wa

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// ErrNotConnected means a send was attempted while the session is down.
var ErrNotConnected = errors.New("whatsapp session not connected")

func (s *Session) currentClient() (*whatsmeow.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil || !s.client.IsConnected() {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

// SendText delivers a plain text message.
func (s *Session) SendText(ctx context.Context, to, text string) error {
	client, err := s.currentClient()
	if err != nil {
		return err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", to, err)
	}
	_, err = client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	return nil
}

// SendImage uploads the file at path and delivers it as an image with an
// optional caption.
func (s *Session) SendImage(ctx context.Context, to, path, caption string) error {
	client, err := s.currentClient()
	if err != nil {
		return err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", to, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", path, err)
	}
	uploaded, err := client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload image %s: %w", path, err)
	}
	msg := &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
		Caption:       proto.String(caption),
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		Mimetype:      proto.String(http.DetectContentType(data)),
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
	}}
	if _, err := client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send image to %s: %w", to, err)
	}
	return nil
}

// SendDocument uploads the file at path and delivers it as a document. The
// file name shown to the recipient is the path base; the mimetype comes from
// the extension.
func (s *Session) SendDocument(ctx context.Context, to, path, caption string) error {
	client, err := s.currentClient()
	if err != nil {
		return err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", to, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", path, err)
	}
	uploaded, err := client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return fmt.Errorf("upload document %s: %w", path, err)
	}
	msg := &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
		Caption:       proto.String(caption),
		FileName:      proto.String(filepath.Base(path)),
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		Mimetype:      proto.String(documentMimetype(path)),
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
	}}
	if _, err := client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send document to %s: %w", to, err)
	}
	return nil
}

func documentMimetype(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
