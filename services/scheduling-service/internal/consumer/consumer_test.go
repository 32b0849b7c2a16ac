package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memInbox struct {
	seen      map[string]bool
	forgotten []string
}

func (m *memInbox) Record(_ context.Context, id, _ string) (bool, error) {
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	m.forgotten = append(m.forgotten, id)
	return nil
}

func message(id, value string) kafka.Message {
	return kafka.Message{
		Topic:   "jobs.status.changed.v1",
		Value:   []byte(value),
		Headers: []kafka.Header{{Key: "event_id", Value: []byte(id)}},
	}
}

func newTestConsumer(inbox Inbox, h Handler) *Consumer {
	return &Consumer{logger: discard, inbox: inbox, handler: h, tracer: noopTracer()}
}

func TestHandleDeduplicates(t *testing.T) {
	calls := 0
	c := newTestConsumer(&memInbox{seen: map[string]bool{}}, func(context.Context, kafka.Message) error {
		calls++
		return nil
	})
	c.Handle(context.Background(), message("e1", "{}"))
	c.Handle(context.Background(), message("e1", "{}"))
	if calls != 1 {
		t.Fatalf("expected one delivery, got %d", calls)
	}
}

func TestHandleReleasesInboxOnFailure(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	c := newTestConsumer(inbox, func(context.Context, kafka.Message) error { return errors.New("db down") })
	c.Handle(context.Background(), message("e2", "{}"))
	if len(inbox.forgotten) != 1 || inbox.seen["e2"] {
		t.Fatalf("expected e2 released, got %+v", inbox)
	}
}

type fakeApplier struct {
	calls []model.JobStatus
	err   error
}

func (f *fakeApplier) TransitionJobStatus(_ context.Context, _, _ string, to model.JobStatus) (model.Job, error) {
	f.calls = append(f.calls, to)
	return model.Job{Status: to}, f.err
}

func TestJobStatusHandler(t *testing.T) {
	ctx := context.Background()
	applier := &fakeApplier{}
	h := JobStatusHandler(applier, discard)

	if err := h(ctx, message("e", `{"business_id":"b","job_id":"j","status":"IN_PROGRESS"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applier.calls) != 1 || applier.calls[0] != model.JobInProgress {
		t.Fatalf("unexpected calls %v", applier.calls)
	}

	if err := h(ctx, message("e", `not json`)); err != nil {
		t.Fatalf("malformed payloads are dropped, got %v", err)
	}
	if err := h(ctx, message("e", `{"job_id":"j"}`)); err != nil {
		t.Fatalf("incomplete payloads are dropped, got %v", err)
	}

	applier.err = schedule.ErrInvalidTransition
	if err := h(ctx, message("e", `{"business_id":"b","job_id":"j","status":"scheduled"}`)); err != nil {
		t.Fatalf("rejected transitions are dropped, got %v", err)
	}

	applier.err = errors.New("connection reset")
	if err := h(ctx, message("e", `{"business_id":"b","job_id":"j","status":"completed"}`)); err == nil {
		t.Fatal("storage errors must be returned")
	}
}
