package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts security-relevant outcomes. A nil *Metrics records nothing.
type Metrics struct {
	logins        metric.Int64Counter
	challenges    metric.Int64Counter
	revocations   metric.Int64Counter
	notifications metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create auth.logins: %w", err)
	}
	challenges, err := meter.Int64Counter("auth.mfa.challenges",
		metric.WithDescription("Second factor verifications by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create auth.mfa.challenges: %w", err)
	}
	revocations, err := meter.Int64Counter("auth.sessions.revoked",
		metric.WithDescription("Sessions revoked, by reason."))
	if err != nil {
		return nil, fmt.Errorf("create auth.sessions.revoked: %w", err)
	}
	notifications, err := meter.Int64Counter("auth.notifications",
		metric.WithDescription("Security notifications by kind and outcome."))
	if err != nil {
		return nil, fmt.Errorf("create auth.notifications: %w", err)
	}

	return &Metrics{
		logins:        logins,
		challenges:    challenges,
		revocations:   revocations,
		notifications: notifications,
	}, nil
}

func (m *Metrics) login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) challenge(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.challenges.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) revoked(ctx context.Context, reason string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.revocations.Add(ctx, n, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) notified(ctx context.Context, kind string, ok bool) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("ok", ok),
	))
}
