package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"contact_service/internal/kafka"
	"contact_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRepo struct {
	mu      sync.Mutex
	saved   []*models.ContactRecord
	saveErr error
}

func (m *mockRepo) Save(_ context.Context, rec *models.ContactRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, rec)
	return nil
}

type mockNotifier struct {
	mu        sync.Mutex
	calls     int
	callTimes []time.Time
	failCount int // первые failCount вызовов падают
	err       error
}

func (m *mockNotifier) Send(_ context.Context, _ *kafka.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.callTimes = append(m.callTimes, time.Now())
	if m.err != nil {
		return m.err
	}
	if m.calls <= m.failCount {
		return fmt.Errorf("simulated notify failure %d", m.calls)
	}
	return nil
}

type mockDLQ struct {
	mu      sync.Mutex
	entries []*kafka.DeadLetterEntry
	err     error
}

func (m *mockDLQ) SendDeadLetter(entry *kafka.DeadLetterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func testPayload(t *testing.T) []byte {
	t.Helper()
	msg := kafka.NewContactMessage(&models.ContactRequest{
		Name:     "John Doe",
		Message:  "Hello",
		Channels: []models.Channel{models.ChannelTelegram},
		Contacts: models.ContactInfo{Telegram: "johndoe"},
	}, "1.2.3.4", "test-agent")

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

// --- tests ---

func TestProcessor_Success(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	dlq := &mockDLQ{}
	p := NewContactProcessor(repo, notifier, dlq, nil, 3, time.Millisecond)

	err := p.ProcessContactMessage(context.Background(), testPayload(t))
	require.NoError(t, err)

	assert.Len(t, repo.saved, 1)
	assert.Equal(t, 1, notifier.calls, "exactly one successful notify call")
	assert.Empty(t, dlq.entries)
}

func TestProcessor_NotifyExhaustionDeadLetters(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{err: fmt.Errorf("telegram down")}
	dlq := &mockDLQ{}
	p := NewContactProcessor(repo, notifier, dlq, nil, 3, 20*time.Millisecond)

	start := time.Now()
	err := p.ProcessContactMessage(context.Background(), testPayload(t))
	require.NoError(t, err, "dead-lettering is a terminal outcome, not an error")

	assert.Len(t, repo.saved, 1, "persistence happened before notify attempts")
	assert.Equal(t, 3, notifier.calls, "exactly 3 attempts")

	require.Len(t, dlq.entries, 1, "exactly one dead-letter write")
	assert.Equal(t, ReasonNotificationFailed, dlq.entries[0].Error)

	// паузы только между попытками: base + 2*base, после последней — нет
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestProcessor_BackoffDoubles(t *testing.T) {
	notifier := &mockNotifier{err: fmt.Errorf("down")}
	p := NewContactProcessor(&mockRepo{}, notifier, &mockDLQ{}, nil, 3, 30*time.Millisecond)

	require.NoError(t, p.ProcessContactMessage(context.Background(), testPayload(t)))
	require.Len(t, notifier.callTimes, 3)

	gap1 := notifier.callTimes[1].Sub(notifier.callTimes[0])
	gap2 := notifier.callTimes[2].Sub(notifier.callTimes[1])

	assert.GreaterOrEqual(t, gap1, 30*time.Millisecond)
	assert.GreaterOrEqual(t, gap2, 60*time.Millisecond)
}

func TestProcessor_NotifyRecoversOnRetry(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{failCount: 2}
	dlq := &mockDLQ{}
	p := NewContactProcessor(repo, notifier, dlq, nil, 3, time.Millisecond)

	require.NoError(t, p.ProcessContactMessage(context.Background(), testPayload(t)))

	assert.Equal(t, 3, notifier.calls, "third attempt succeeded")
	assert.Empty(t, dlq.entries)
}

func TestProcessor_PersistFailureSkipsNotify(t *testing.T) {
	repo := &mockRepo{saveErr: fmt.Errorf("db is on fire")}
	notifier := &mockNotifier{}
	dlq := &mockDLQ{}
	p := NewContactProcessor(repo, notifier, dlq, nil, 3, time.Millisecond)

	require.NoError(t, p.ProcessContactMessage(context.Background(), testPayload(t)))

	assert.Equal(t, 0, notifier.calls, "no notify attempt after persistence failure")
	require.Len(t, dlq.entries, 1)
	assert.Contains(t, dlq.entries[0].Error, "db is on fire")
	assert.NotEqual(t, ReasonNotificationFailed, dlq.entries[0].Error,
		"persistence failure carries its own reason")
}

func TestProcessor_InvalidPayloadDeadLetters(t *testing.T) {
	dlq := &mockDLQ{}
	notifier := &mockNotifier{}
	p := NewContactProcessor(&mockRepo{}, notifier, dlq, nil, 3, time.Millisecond)

	require.NoError(t, p.ProcessContactMessage(context.Background(), []byte("not json")))

	assert.Equal(t, 0, notifier.calls)
	require.Len(t, dlq.entries, 1)
	assert.Contains(t, dlq.entries[0].Error, "unmarshal")

	// DLQ-запись обязана сериализоваться даже с битым payload
	_, err := json.Marshal(dlq.entries[0])
	assert.NoError(t, err)
}

func TestProcessor_DLQWriteFailureIsSwallowed(t *testing.T) {
	repo := &mockRepo{saveErr: fmt.Errorf("db down")}
	dlq := &mockDLQ{err: fmt.Errorf("broker down too")}
	p := NewContactProcessor(repo, &mockNotifier{}, dlq, nil, 3, time.Millisecond)

	// деградация до лога: обработка всё равно завершается без ошибки
	assert.NoError(t, p.ProcessContactMessage(context.Background(), testPayload(t)))
}

func TestProcessor_CancelledDuringBackoff(t *testing.T) {
	repo := &mockRepo{}
	notifier := &mockNotifier{err: fmt.Errorf("down")}
	dlq := &mockDLQ{}
	p := NewContactProcessor(repo, notifier, dlq, nil, 3, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := p.ProcessContactMessage(ctx, testPayload(t))
	require.ErrorIs(t, err, context.Canceled,
		"shutdown mid-backoff surfaces as an error so the offset is not committed")
	assert.Empty(t, dlq.entries, "no dead-letter on shutdown, message will be redelivered")
}

func TestProcessor_DLQEntryWireFormat(t *testing.T) {
	dlq := &mockDLQ{}
	repo := &mockRepo{saveErr: fmt.Errorf("boom")}
	p := NewContactProcessor(repo, &mockNotifier{}, dlq, nil, 3, time.Millisecond)

	payload := testPayload(t)
	require.NoError(t, p.ProcessContactMessage(context.Background(), payload))
	require.Len(t, dlq.entries, 1)

	b, err := json.Marshal(dlq.entries[0])
	require.NoError(t, err)

	var wire struct {
		OriginalMessage json.RawMessage `json:"original_message"`
		Error           string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(b, &wire))
	assert.JSONEq(t, string(payload), string(wire.OriginalMessage))
	assert.NotEmpty(t, wire.Error)
}
