package gen

import (
	"context"
	"time"
)

const appendSecurityEvent = `INSERT INTO security_events (
	id, user_id, event_type, event_metadata, notification_sent, created_at
) VALUES (?, ?, ?, ?, FALSE, ?)`

type AppendSecurityEventParams struct {
	ID            string
	UserID        int64
	EventType     string
	EventMetadata string
	CreatedAt     time.Time
}

func (q *Queries) AppendSecurityEvent(ctx context.Context, arg AppendSecurityEventParams) error {
	_, err := q.db.ExecContext(ctx, appendSecurityEvent,
		arg.ID,
		arg.UserID,
		arg.EventType,
		arg.EventMetadata,
		arg.CreatedAt,
	)
	return err
}

const markNotificationSent = `UPDATE security_events SET notification_sent = TRUE WHERE id = ?`

func (q *Queries) MarkNotificationSent(ctx context.Context, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, markNotificationSent, id))
}

// ULIDs sort by creation time, so ordering by id is newest-first without
// comparing timestamps.
const listSecurityEvents = `SELECT id, user_id, event_type, event_metadata, notification_sent, created_at
FROM security_events
WHERE user_id = ?
ORDER BY id DESC
LIMIT ?`

func (q *Queries) ListSecurityEvents(ctx context.Context, userID int64, limit int) ([]SecurityEvent, error) {
	rows, err := q.db.QueryContext(ctx, listSecurityEvents, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SecurityEvent
	for rows.Next() {
		var e SecurityEvent
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.EventType,
			&e.EventMetadata,
			&e.NotificationSent,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
