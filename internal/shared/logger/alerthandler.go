package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"deskbridge/internal/shared/utils/logutil"
)

const (
	alertQueueSize   = 64
	alertSendTimeout = 10 * time.Second
	maxAlertStackLen = 2500

	// SuppressAlertKey marks a record that must never be forwarded to the alert sink.
	SuppressAlertKey = "alert_suppress"
)

// AlertSink delivers a formatted alert to an operator channel.
type AlertSink interface {
	SendAlert(ctx context.Context, text string) error
}

// AlertMeta identifies the process in every alert.
type AlertMeta struct {
	Service     string
	Instance    string
	Environment string
	Host        string
}

type suppressAlertsKey struct{}

// WithoutAlerts marks ctx so that records logged with it are never forwarded.
func WithoutAlerts(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressAlertsKey{}, true)
}

func alertsSuppressed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(suppressAlertsKey{}).(bool)
	return v
}

type alertDispatcher struct {
	sink    AlertSink
	meta    AlertMeta
	queue   chan string
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func (d *alertDispatcher) run() {
	defer close(d.done)
	for text := range d.queue {
		ctx, cancel := context.WithTimeout(WithoutAlerts(context.Background()), alertSendTimeout)
		_ = d.sink.SendAlert(ctx, text)
		cancel()
	}
}

func (d *alertDispatcher) enqueue(text string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- text:
	default:
		d.dropped.Add(1)
	}
}

// AlertHandler mirrors records at or above a level to an AlertSink while
// passing every record to the wrapped handler. Delivery is asynchronous and
// lossy under pressure; the logging call never waits on the sink.
type AlertHandler struct {
	next  slog.Handler
	level slog.Leveler
	d     *alertDispatcher
	attrs []slog.Attr
}

func NewAlertHandler(next slog.Handler, sink AlertSink, level slog.Leveler, meta AlertMeta) *AlertHandler {
	d := &alertDispatcher{
		sink:  sink,
		meta:  meta,
		queue: make(chan string, alertQueueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return &AlertHandler{next: next, level: level, d: d}
}

func (h *AlertHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.level.Level()
}

func (h *AlertHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.next.Enabled(ctx, r.Level) {
		err = h.next.Handle(ctx, r)
	}

	if r.Level < h.level.Level() || alertsSuppressed(ctx) {
		return err
	}

	fields := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.String()
		return true
	})
	if fields[SuppressAlertKey] == "true" {
		return err
	}

	h.d.enqueue(h.d.format(r, fields))
	return err
}

func (h *AlertHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &AlertHandler{next: h.next.WithAttrs(attrs), level: h.level, d: h.d, attrs: merged}
}

func (h *AlertHandler) WithGroup(name string) slog.Handler {
	return &AlertHandler{next: h.next.WithGroup(name), level: h.level, d: h.d, attrs: h.attrs}
}

// Dropped returns how many alerts were discarded because the queue was full.
func (h *AlertHandler) Dropped() int64 {
	return h.d.dropped.Load()
}

// Close stops accepting alerts and waits for queued ones to be sent or ctx to end.
func (h *AlertHandler) Close(ctx context.Context) error {
	h.d.mu.Lock()
	if !h.d.closed {
		h.d.closed = true
		close(h.d.queue)
	}
	h.d.mu.Unlock()

	select {
	case <-h.d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *alertDispatcher) format(r slog.Record, fields map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, ":rotating_light: *%s* in %s\n", r.Level.String(), d.meta.Service)
	fmt.Fprintf(&b, "*Message:* %s\n", r.Message)
	fmt.Fprintf(&b, "*Instance:* %s | *Environment:* %s | *Host:* %s\n",
		d.meta.Instance, d.meta.Environment, d.meta.Host)

	name := fields["logger"]
	if name == "" {
		name = fields["component"]
	}
	if name != "" {
		fmt.Fprintf(&b, "*Logger:* %s\n", name)
	}
	fmt.Fprintf(&b, "*Time:* %s\n", r.Time.UTC().Format(time.RFC3339))

	if errText := fields["error"]; errText != "" {
		fmt.Fprintf(&b, "*Error:* %s\n", errText)
	}
	if stack := fields["stack"]; stack != "" {
		fmt.Fprintf(&b, "```%s```\n", logutil.TruncateForLog(stack, maxAlertStackLen))
	}

	return strings.TrimRight(b.String(), "\n")
}
