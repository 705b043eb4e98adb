package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/internal/repository/memory"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	failKey  string
	// failType narrows failKey to a single event type
	failType string
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == w.failKey && (w.failType == "" || string(m.Headers[0].Value) == w.failType) {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func seedEvents(t *testing.T, repo *memory.OrderEventRepository, orderIDs ...string) {
	t.Helper()
	for _, id := range orderIDs {
		require.NoError(t, repo.Create(context.Background(), &domain.OrderEvent{
			OrderID:   id,
			EventType: domain.EventOrderCreated,
			EventData: map[string]interface{}{"totalPrice": 236.0},
		}))
	}
}

func TestOutboxPoller_PublishesAndMarks(t *testing.T) {
	repo := memory.NewOrderEventRepository()
	seedEvents(t, repo, "o1", "o2")
	writer := &fakeWriter{}
	poller := NewOutboxPoller(repo, writer, zap.NewNop())

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 2)
	msg := writer.messages[0]
	assert.Equal(t, "o1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, domain.EventOrderCreated, string(msg.Headers[0].Value))

	var body eventMessage
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "o1", body.OrderID)
	assert.Equal(t, 236.0, body.Data["totalPrice"])

	pending, err := repo.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	poller.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.messages, 2)
}

func TestOutboxPoller_FailedWriteStaysPending(t *testing.T) {
	repo := memory.NewOrderEventRepository()
	seedEvents(t, repo, "o1", "o2")
	writer := &fakeWriter{failKey: "o1"}
	poller := NewOutboxPoller(repo, writer, zap.NewNop())

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "o2", string(writer.messages[0].Key))

	pending, err := repo.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o1", pending[0].OrderID)

	writer.failKey = ""
	poller.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.messages, 2)
}

func seedHistory(t *testing.T, repo *memory.OrderEventRepository) {
	t.Helper()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, e := range []struct{ orderID, eventType string }{
		{"o1", domain.EventOrderCreated},
		{"o2", domain.EventOrderCreated},
		{"o1", domain.EventOrderDelivered},
	} {
		require.NoError(t, repo.Create(context.Background(), &domain.OrderEvent{
			OrderID:   e.orderID,
			EventType: e.eventType,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func sent(w *fakeWriter) []string {
	var out []string
	for _, m := range w.messages {
		out = append(out, string(m.Key)+"/"+string(m.Headers[0].Value))
	}
	return out
}

func TestOutboxPoller_FailedWriteHoldsBackLaterEventsOfSameOrder(t *testing.T) {
	repo := memory.NewOrderEventRepository()
	seedHistory(t, repo)
	writer := &fakeWriter{failKey: "o1", failType: domain.EventOrderCreated}
	poller := NewOutboxPoller(repo, writer, zap.NewNop())

	poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{"o2/" + domain.EventOrderCreated}, sent(writer))
	pending, err := repo.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	writer.failKey = ""
	poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, []string{
		"o2/" + domain.EventOrderCreated,
		"o1/" + domain.EventOrderCreated,
		"o1/" + domain.EventOrderDelivered,
	}, sent(writer))
}

// unmarkable fails MarkPublished for one event
type unmarkable struct {
	repository.OrderEventRepository
	eventID string
}

func (r *unmarkable) MarkPublished(ctx context.Context, id string, at time.Time) error {
	if id == r.eventID {
		return errors.New("write conflict")
	}
	return r.OrderEventRepository.MarkPublished(ctx, id, at)
}

func TestOutboxPoller_FailedMarkHoldsBackLaterEventsOfSameOrder(t *testing.T) {
	repo := memory.NewOrderEventRepository()
	seedHistory(t, repo)
	pending, err := repo.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, "o1", pending[0].OrderID)

	writer := &fakeWriter{}
	wrapped := &unmarkable{OrderEventRepository: repo, eventID: pending[0].ID}
	poller := NewOutboxPoller(wrapped, writer, zap.NewNop())

	poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{
		"o1/" + domain.EventOrderCreated,
		"o2/" + domain.EventOrderCreated,
	}, sent(writer))
	left, err := repo.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, domain.EventOrderDelivered, left[1].EventType)
}

func TestOutboxPoller_RunStopsOnCancel(t *testing.T) {
	repo := memory.NewOrderEventRepository()
	seedEvents(t, repo, "o1")
	writer := &fakeWriter{}
	poller := NewOutboxPoller(repo, writer, zap.NewNop())
	poller.tick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
