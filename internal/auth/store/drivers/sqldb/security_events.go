package sqldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store/gen"
)

type securityEventsRepo struct {
	q *gen.Queries
}

func (r *securityEventsRepo) AppendEvent(ctx context.Context, e domain.SecurityEvent) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	return r.q.AppendSecurityEvent(ctx, gen.AppendSecurityEventParams{
		ID:            e.ID,
		UserID:        e.UserID,
		EventType:     e.Type,
		EventMetadata: string(raw),
		CreatedAt:     e.CreatedAt,
	})
}

func (r *securityEventsRepo) MarkNotificationSent(ctx context.Context, eventID string) error {
	return requireRow(r.q.MarkNotificationSent(ctx, eventID))
}

func (r *securityEventsRepo) ListEvents(ctx context.Context, userID int64, limit int) ([]domain.SecurityEvent, error) {
	rows, err := r.q.ListSecurityEvents(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SecurityEvent, 0, len(rows))
	for _, row := range rows {
		var meta map[string]string
		if err := json.Unmarshal([]byte(row.EventMetadata), &meta); err != nil {
			return nil, fmt.Errorf("decode metadata of event %s: %w", row.ID, err)
		}
		out = append(out, domain.SecurityEvent{
			ID:               row.ID,
			UserID:           row.UserID,
			Type:             row.EventType,
			Metadata:         meta,
			NotificationSent: row.NotificationSent,
			CreatedAt:        row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
