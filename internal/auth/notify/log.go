// Package notify holds Mailer implementations.
package notify

import (
	"context"
	"log/slog"
	"sort"

	"github.com/chefstream/auth/pkg/slogx"
)

// LogMailer writes each notification as a structured log record instead of
// sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Notify(ctx context.Context, to, kind string, data map[string]string) error {
	l := m.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, data[k]))
	}

	l.InfoContext(ctx, "security notification",
		slog.String("to", to),
		slog.String("kind", kind),
		slog.Group("data", attrs...),
	)
	return nil
}
