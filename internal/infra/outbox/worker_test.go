package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out  []published
	fail error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, published{topic, key, payload, headers})
	return nil
}

func eventDoc(id, name string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		Aggregate:  "bk-1",
		OccurredAt: time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC),
		Headers:    map[string]string{"traceparent": "00-abc-01"},
	}
}

func TestWorker_DrainPublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{eventDoc("ev-1", "booking.created"), eventDoc("ev-2", "booking.status_changed")}}
	p := &fakeProducer{}
	w := &Worker{Store: q, Producer: p, TopicPrefix: "prod.", ID: "w-1"}

	w.drain(context.Background())

	assert.Equal(t, []string{"ev-1", "ev-2"}, q.sent)
	require.Len(t, p.out, 2)
	assert.Equal(t, "prod.booking.events.v1", p.out[0].topic)
	assert.Equal(t, "bk-1", p.out[0].key)
	assert.Equal(t, "application/cloudevents+json", p.out[0].headers["content-type"])

	var env Envelope
	require.NoError(t, json.Unmarshal(p.out[1].payload, &env))
	assert.Equal(t, "ev-2", env.ID)
	assert.Equal(t, "booking.status_changed.v1", env.Type)
	assert.Equal(t, "booking.status_changed", env.EventName())
	assert.Equal(t, "app://carbooking", env.Source)
	assert.Equal(t, "00-abc-01", env.TraceParent)
}

func TestWorker_FailedPublishIsRescheduled(t *testing.T) {
	now := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	doc := eventDoc("ev-1", "booking.created")
	doc.Attempts = 1
	q := &fakeQueue{docs: []*EventDocument{doc}}
	w := &Worker{
		Store:    q,
		Producer: &fakeProducer{fail: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 10 * time.Second},
		Now:      func() time.Time { return now },
	}

	w.drain(context.Background())

	assert.Empty(t, q.sent)
	assert.Equal(t, now.Add(10*time.Second), q.failed["ev-1"])
}

func TestWorker_RunRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "booking.events.v1", TopicFor("", "booking.refunded"))
	assert.Equal(t, "ops.misc.events.v1", TopicFor("ops.", "misc"))
}
