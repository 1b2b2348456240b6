package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the claim/ack surface of the outbox store.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker publishes committed booking events to Kafka as CloudEvents. Records
// that fail to publish are retried with Backoff.
type Worker struct {
	Store       Queue
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain publishes due records until the queue is empty or a claim fails.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		published, err := w.processOnce(ctx)
		if err != nil {
			if w.Logger != nil && !errors.Is(err, context.Canceled) {
				w.Logger.Error("outbox claim failed", "worker", w.ID, "error", err)
			}
			return
		}
		if !published {
			return
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, err
	}
	topic := w.topicFor(doc.Name)
	payload, headers, err := w.formatPayload(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event", doc.Name, "id", doc.ID, "attempt", doc.Attempts+1, "error", err)
		}
		return true, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, doc.ID)
}

// formatPayload wraps the record in a CloudEvents envelope. The envelope id is
// the record id so consumers can deduplicate redeliveries.
func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := Envelope{
		SpecVersion:     "1.0",
		ID:              doc.ID,
		Type:            doc.Name + ".v1",
		Source:          w.source(),
		Subject:         doc.Aggregate,
		Time:            doc.OccurredAt.UTC(),
		DataContentType: "application/json",
		Data:            data,
		TraceParent:     doc.Headers["traceparent"],
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// Envelope is the CloudEvents 1.0 JSON form of a published record.
type Envelope struct {
	SpecVersion     string    `json:"specversion"`
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data"`
	TraceParent     string    `json:"traceparent,omitempty"`
}

// EventName strips the version suffix from the envelope type.
func (e Envelope) EventName() string {
	return strings.TrimSuffix(e.Type, ".v1")
}

func (w *Worker) topicFor(name string) string {
	return TopicFor(w.TopicPrefix, name)
}

// TopicFor maps "booking.created" onto "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := w.now()
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://carbooking"
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
