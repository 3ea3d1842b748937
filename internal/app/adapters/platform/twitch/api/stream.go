package api

import (
	"chatcore/internal/app/domain/stream"
	"fmt"
	"github.com/nicklaw5/helix/v2"
	"strings"
)

// Stream возвращает состояние трансляции канала; пустой ответ - офлайн.
func (a *API) Stream(channel string) (stream.Snapshot, error) {
	resp, err := a.client.GetStreams(&helix.StreamsParams{
		UserLogins: []string{strings.ToLower(channel)},
	})
	if err != nil {
		return stream.Snapshot{}, fmt.Errorf("helix: GetStreams: %w", err)
	}
	if err := status("GetStreams", resp.ResponseCommon); err != nil {
		return stream.Snapshot{}, err
	}

	for _, s := range resp.Data.Streams {
		if s.Type != "" && s.Type != "live" {
			continue
		}
		return stream.Snapshot{
			Live:      true,
			Category:  s.GameName,
			Title:     s.Title,
			Viewers:   s.ViewerCount,
			StartedAt: s.StartedAt,
		}, nil
	}
	return stream.Snapshot{}, nil
}
