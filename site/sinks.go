package site

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/ebiview/site/internal/sink"
)

// Sink is the output interface for presentation events.
type Sink = sink.Sink

// EventFunc is called for each event by a callback sink.
type EventFunc = sink.EventFunc

// NewStdoutSink creates a JSON-lines sink. nil writes to stdout.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process sink.
func NewCallbackSink(fn EventFunc) Sink {
	return sink.NewCallback(fn)
}
