package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/memory"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same whole-record write semantics
// as the redis implementation.
type memStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, userID string) (*model.ConversationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	var record model.ConversationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *memStore) Save(_ context.Context, record *model.ConversationRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.UserID] = raw
	return nil
}

func (m *memStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}

func (m *memStore) Exists(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[userID]
	return ok, nil
}

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) PostChatCompletionsNonStreamContent(_ context.Context, _ []openai.ChatCompletionMessage) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestService(completer *stubCompleter) (*Service, *memStore) {
	store := newMemStore()
	svc := NewServiceWithLimits(store, memory.NewCompressor(completer),
		defaultHistoryTurns, defaultSummarizeThreshold)
	return svc, store
}

func TestAppendExchangeCreatesRecord(t *testing.T) {
	svc, _ := newTestService(&stubCompleter{})
	ctx := context.Background()

	require.NoError(t, svc.AppendExchange(ctx, "u1", "hello", "hi there"))

	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)

	exists, err := svc.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAppendExchangeTriggersSummarization(t *testing.T) {
	completer := &stubCompleter{reply: "summary of early turns"}
	svc, _ := newTestService(completer)
	ctx := context.Background()

	// 21 exchanges = 42 turns, crossing the threshold of 40 on the last one.
	for i := 0; i < 21; i++ {
		require.NoError(t, svc.AppendExchange(ctx, "u1", "question", "answer"))
	}

	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 21, len(turns), "oldest half folded into the summary")
	assert.Equal(t, 1, completer.calls)

	convCtx, err := svc.Context(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "summary of early turns", convCtx.Summary)
	assert.Len(t, convCtx.RecentTurns, 10)
}

func TestAppendExchangeNoSummarizeNeverCallsModel(t *testing.T) {
	completer := &stubCompleter{reply: "summary"}
	svc, _ := newTestService(completer)
	ctx := context.Background()

	// 20 exchanges = 40 turns, sitting exactly at the threshold.
	for i := 0; i < 20; i++ {
		require.NoError(t, svc.AppendExchange(ctx, "u1", "question", "answer"))
	}
	require.Equal(t, 0, completer.calls)

	require.NoError(t, svc.AppendExchangeNoSummarize(ctx, "u1", "question", "not found"))

	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 42, "exchange persisted in full")
	assert.Equal(t, 0, completer.calls, "no model call on the no-summarize path")

	convCtx, err := svc.Context(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, convCtx.Summary)

	// The next regular append picks the deferred summarization up.
	require.NoError(t, svc.AppendExchange(ctx, "u1", "question", "answer"))
	turns, err = svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 22)
	assert.Equal(t, 1, completer.calls)
}

func TestAppendExchangeKeepsFullLogWhenSummarizationFails(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model down")}
	svc, _ := newTestService(completer)
	ctx := context.Background()

	// 21 exchanges cross the threshold; the failing summarizer must not cost
	// any turns.
	for i := 0; i < 21; i++ {
		require.NoError(t, svc.AppendExchange(ctx, "u1", "question", "answer"))
	}

	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 42, "full log retained until summarization succeeds")

	convCtx, err := svc.Context(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, convCtx.Summary)

	// Once the model recovers the backlog is folded on the next append.
	completer.err = nil
	completer.reply = "recovered summary"
	require.NoError(t, svc.AppendExchange(ctx, "u1", "question", "answer"))

	turns, err = svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 22)

	convCtx, err = svc.Context(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "recovered summary", convCtx.Summary)
}

func TestContextEmptyUser(t *testing.T) {
	svc, _ := newTestService(&stubCompleter{})

	convCtx, err := svc.Context(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, convCtx.Summary)
	assert.Empty(t, convCtx.RecentTurns)
}

func TestClearStartsFresh(t *testing.T) {
	svc, _ := newTestService(&stubCompleter{})
	ctx := context.Background()

	require.NoError(t, svc.AppendExchange(ctx, "u1", "first", "reply"))
	require.NoError(t, svc.Clear(ctx, "u1"))

	exists, err := svc.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Reusing the id starts a fresh two-turn record.
	require.NoError(t, svc.AppendExchange(ctx, "u1", "again", "reply"))
	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, "again", turns[0].Content)
}

func TestConcurrentUsersAreIsolated(t *testing.T) {
	svc, _ := newTestService(&stubCompleter{})
	ctx := context.Background()

	var wg sync.WaitGroup
	users := []string{"a", "b", "c"}
	for _, user := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				assert.NoError(t, svc.AppendExchange(ctx, u, "q", "a"))
			}
		}(user)
	}
	wg.Wait()

	for _, user := range users {
		turns, err := svc.History(ctx, user)
		require.NoError(t, err)
		assert.Len(t, turns, 10, "user %s", user)
	}
}

func TestConcurrentSameUserLosesNoTurns(t *testing.T) {
	svc, _ := newTestService(&stubCompleter{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.AppendExchange(ctx, "u1", "q", "a"))
		}()
	}
	wg.Wait()

	turns, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 20)
}
