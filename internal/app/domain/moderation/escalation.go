package moderation

import (
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/ports"
	"context"
	"fmt"
	"time"
)

// punish выдает предупреждение или таймаут. Предупреждения старше часа не учитываются;
// после исчерпания допустимого числа следует настоящий таймаут и список очищается.
func (s *Service) punish(ctx context.Context, pc *parser.Context, filter string, seconds int) error {
	cfg := s.manager.Get().Moderation.Warnings
	sender := pc.Sender()

	unlock := s.locks.Lock("warnings|" + sender.UserID)
	defer unlock()

	now := s.now()
	warnings, err := s.warnings.Get(ctx, sender.UserID)
	if err != nil {
		return fmt.Errorf("load warnings: %w", err)
	}
	warnings = prune(warnings, now)

	if cfg.Allowed == 0 || len(warnings) >= cfg.Allowed {
		if err := s.warnings.Set(ctx, sender.UserID, nil); err != nil {
			return fmt.Errorf("clear warnings: %w", err)
		}

		text := s.translator.Prepare("moderation.user-have-timeout-for-"+messageKeys[filter], map[string]any{
			"sender": "@" + sender.Name(),
		})
		pc.Timeout(ctx, seconds, text)
		if cfg.AnnounceTimeouts {
			pc.Reply(text)
		}
		s.record(filter, "timeout")
		return nil
	}

	warnings = append(warnings, now)
	if err := s.warnings.Set(ctx, sender.UserID, warnings); err != nil {
		return fmt.Errorf("save warnings: %w", err)
	}

	left := cfg.Allowed - len(warnings)
	text := s.translator.Prepare("moderation.user-is-warned-about-"+messageKeys[filter], map[string]any{
		"sender": "@" + sender.Name(),
		"count":  left,
	})

	if cfg.ShouldTimeout {
		pc.Timeout(ctx, 1, text)
	}
	if cfg.Announce && s.announce(filter) {
		pc.Reply(text)
	}
	pc.Publish(ports.EventWarning, filter, map[string]any{"warnings_left": left})
	s.record(filter, "warning")
	return nil
}

func prune(warnings []time.Time, now time.Time) []time.Time {
	var out []time.Time
	for _, w := range warnings {
		if now.Sub(w) < warningWindow {
			out = append(out, w)
		}
	}
	return out
}
