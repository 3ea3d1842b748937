package parser

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"time"
)

// Scheduler откладывает задачу; в проде это колесо таймеров.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}

// Emitter отправляет ответы в чат с нарастающей задержкой между ними.
type Emitter struct {
	log     logger.Logger
	sink    ports.ChatSink
	sched   Scheduler
	stagger time.Duration
}

func NewEmitter(log logger.Logger, sink ports.ChatSink, sched Scheduler, stagger time.Duration) *Emitter {
	return &Emitter{
		log:     log,
		sink:    sink,
		sched:   sched,
		stagger: stagger,
	}
}

func (e *Emitter) Emit(ctx context.Context, msg *message.ChatMessage, responses []Response) {
	ctx = context.WithoutCancel(ctx)

	for i, r := range responses {
		attrs := ports.MessageAttrs{Whisper: r.Whisper || msg.IsWhisper}
		if !attrs.Whisper {
			attrs.ReplyTo = msg.ID
		}

		send := func() {
			if err := e.sink.SendMessage(ctx, r.Text, msg.Sender, attrs); err != nil {
				e.log.Error("Failed to send response", err, "user", msg.Sender.Username)
				metrics.OutboundMessages.WithLabelValues("message", "error").Inc()
				return
			}
			metrics.OutboundMessages.WithLabelValues("message", "ok").Inc()
		}

		if i == 0 || e.stagger <= 0 {
			send()
			continue
		}
		e.sched.Schedule(time.Duration(i)*e.stagger, send)
	}
}

func (e *Emitter) Timeout(ctx context.Context, user message.Sender, reason string, seconds int) error {
	return e.sink.Timeout(context.WithoutCancel(ctx), user, reason, seconds)
}
