package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hazyhaar/ebiview/site/event"
)

// ErrQueueFull is returned by Webhook.Send when the delivery queue is full.
// The event is dropped.
var ErrQueueFull = errors.New("webhook: queue full, event dropped")

// ErrClosed is returned by Webhook.Send after Close.
var ErrClosed = errors.New("webhook: closed")

// Webhook POSTs each event as JSON, retrying with exponential backoff.
// Send only enqueues: delivery runs on one background goroutine so a slow
// or failing endpoint never holds up the caller.
type Webhook struct {
	url        string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	queueSize  int
	drain      time.Duration
	logger     *slog.Logger

	queue  chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// WebhookOption configures a Webhook sink.
type WebhookOption func(*Webhook)

// WithWebhookRetries sets the maximum number of retries. Default: 3.
func WithWebhookRetries(n int) WebhookOption {
	return func(w *Webhook) { w.maxRetries = n }
}

// WithWebhookBackoff sets the first retry delay, doubled on each attempt.
// Default: 1s.
func WithWebhookBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.backoff = d }
}

// WithWebhookQueue sets how many events may wait for delivery. Default: 256.
func WithWebhookQueue(n int) WebhookOption {
	return func(w *Webhook) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithWebhookDrain bounds how long Close waits for queued events before
// abandoning them. Default: 5s.
func WithWebhookDrain(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.drain = d }
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWebhook creates a Webhook sink targeting url and starts its sender.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		queueSize:  256,
		drain:      5 * time.Second,
		logger:     slog.Default(),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	w.queue = make(chan []byte, w.queueSize)
	w.ctx, w.cancel = context.WithCancel(context.Background())
	go w.run()
	return w
}

// Send queues e for delivery. It never blocks; ctx only bounds encoding.
// Delivery outlives the caller's context until Close.
func (w *Webhook) Send(_ context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.queue <- body:
		return nil
	default:
		w.logger.Warn("webhook: queue full, dropping event", "kind", e.Kind, "target", e.Target)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits up to the drain timeout for the
// queue to empty, then abandons what is left.
func (w *Webhook) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-time.After(w.drain):
		w.cancel()
		<-w.done
	}
	w.cancel()
	return nil
}

func (w *Webhook) run() {
	defer close(w.done)
	for body := range w.queue {
		if w.ctx.Err() != nil {
			continue
		}
		if err := w.post(w.ctx, body); err != nil {
			w.logger.Warn("webhook: event dropped", "error", err)
		}
	}
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			wait := w.backoff << uint(attempt-1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("webhook: request failed", "attempt", attempt+1, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook: status %d", resp.StatusCode)
		w.logger.Warn("webhook: bad status", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return fmt.Errorf("webhook: all retries exhausted: %w", lastErr)
}
