package ports

import (
	"chatcore/internal/app/domain/message"
	"context"
)

type MessageAttrs struct {
	Whisper bool
	// ReplyTo - id исходного сообщения для ответа в треде.
	ReplyTo string
}

// ChatSink - исходящая сторона чата. Вызовы fire-and-forget, ретраи на стороне транспорта.
type ChatSink interface {
	SendMessage(ctx context.Context, text string, to message.Sender, attrs MessageAttrs) error
	Timeout(ctx context.Context, user message.Sender, reason string, seconds int) error
}
