// Package sinks provides the default NATS-backed AlertSink, ThrottleSink,
// IsolationSink, and RerouteSink implementations the security mesh
// publishes its decisions to.
package sinks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	nats "github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/workchain/security-core/security"
)

var propagator = propagation.TraceContext{}

const (
	subjectAlerts     = "workchain.security.alerts"
	subjectThrottles  = "workchain.security.throttles"
	subjectIsolations = "workchain.security.isolations"
	subjectReroutes   = "workchain.security.reroutes"
)

// NATS publishes mesh decisions onto a NATS connection, retrying transient
// publish failures with exponential backoff and propagating the W3C trace
// context of the ctx given to New onto every published message.
type NATS struct {
	conn *nats.Conn
	ctx  context.Context
}

// New wraps an established NATS connection. ctx supplies the trace context
// threaded onto published message headers; pass context.Background() if
// the caller has no live request context to propagate.
func New(conn *nats.Conn, ctx context.Context) *NATS {
	if ctx == nil {
		ctx = context.Background()
	}
	return &NATS{conn: conn, ctx: ctx}
}

func (n *NATS) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("sink payload marshal failed", "subject", subject, "error", err)
		return
	}

	op := func() error {
		hdr := nats.Header{}
		propagator.Inject(n.ctx, propagation.HeaderCarrier(hdr))
		return n.conn.PublishMsg(&nats.Msg{Subject: subject, Data: data, Header: hdr})
	}

	boff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, boff); err != nil {
		slog.Error("sink publish exhausted retries", "subject", subject, "error", err)
	}
}

// Alert implements security.AlertSink.
func (n *NATS) Alert(a security.AnomalyScore) {
	n.publish(subjectAlerts, a)
}

// Throttle implements security.ThrottleSink.
func (n *NATS) Throttle(clientID string, factor float64) {
	n.publish(subjectThrottles, struct {
		ClientID string  `json:"client_id"`
		Factor   float64 `json:"factor"`
	}{clientID, factor})
}

// Isolate implements security.IsolationSink.
func (n *NATS) Isolate(rec security.ClientIsolation) {
	n.publish(subjectIsolations, rec)
}

// Reroute implements security.RerouteSink.
func (n *NATS) Reroute(clientID string) {
	n.publish(subjectReroutes, struct {
		ClientID string `json:"client_id"`
	}{clientID})
}

// Subscribe wires handler to receive isolation records published on
// subjectIsolations, extracting the publisher's trace context into a
// child consumer span before invoking handler.
func Subscribe(conn *nats.Conn, handler func(context.Context, []byte)) (*nats.Subscription, error) {
	return conn.Subscribe(subjectIsolations, func(m *nats.Msg) {
		carrier := propagation.HeaderCarrier(m.Header)
		ctx := propagator.Extract(context.Background(), carrier)
		tracer := otel.Tracer("workchain-security-core")
		ctx, span := tracer.Start(ctx, "sinks.consume")
		defer span.End()
		handler(ctx, m.Data)
	})
}

// Connect dials addr with a bounded connect timeout, matching the
// connection posture the mesh's demo service expects at startup.
func Connect(addr string) (*nats.Conn, error) {
	return nats.Connect(addr, nats.Timeout(5*time.Second), nats.MaxReconnects(-1))
}
