package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/coder-lang/Chatbotscannedpdf/constant"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/memory"
	"github.com/coder-lang/Chatbotscannedpdf/service/conversation"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	passages []model.RetrievedPassage
	err      error
	size     int64
}

func (f *fakeRetriever) Retrieve(context.Context, string, []int) ([]model.RetrievedPassage, error) {
	return f.passages, f.err
}

func (f *fakeRetriever) IndexSize(context.Context) (int64, error) {
	return f.size, nil
}

type fakeCompleter struct {
	reply string
	errs  []error
	calls int
	last  []openai.ChatCompletionMessage
}

func (f *fakeCompleter) PostChatCompletionsNonStreamContent(_ context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	f.calls++
	f.last = messages
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

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

func newTestService(retriever *fakeRetriever, completer *fakeCompleter) (*Service, *memStore) {
	store := newMemStore()
	convService := conversation.NewServiceWithLimits(store, memory.NewCompressor(completer), 10, 40)
	svc := &Service{
		retriever:           retriever,
		conversationService: convService,
		llmClient:           completer,
		generationRetries:   1,
	}
	return svc, store
}

func evidencePassages() []model.RetrievedPassage {
	return []model.RetrievedPassage{
		{DocName: "ration_cards", PageNo: 3, Years: []int{2013, 2014}, Text: "Cards issued in 2013-14: 1200", Score: 0.91},
		{DocName: "ration_cards", PageNo: 7, Years: []int{2014}, Text: "District totals for 2014", Score: 0.85},
	}
}

func TestChatGroundedAnswer(t *testing.T) {
	retriever := &fakeRetriever{passages: evidencePassages()}
	completer := &fakeCompleter{reply: "In 2013-14, 1200 cards were issued."}
	svc, _ := newTestService(retriever, completer)

	resp, chatErr := svc.Chat(context.Background(), "u1", "How many cards were issued in 2013-14?")
	require.Nil(t, chatErr)
	assert.Equal(t, "In 2013-14, 1200 cards were issued.", resp.Answer)
	assert.Equal(t, []string{
		"Document: ration_cards, Page: 3",
		"Document: ration_cards, Page: 7",
	}, resp.Sources)
	assert.Equal(t, 1, completer.calls)

	history, chatErr := svc.GetHistory(context.Background(), "u1")
	require.Nil(t, chatErr)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, model.RoleUser, history.Messages[0].Role)
	assert.Equal(t, "How many cards were issued in 2013-14?", history.Messages[0].Content)
}

func TestChatPromptCarriesContextAndYearReminder(t *testing.T) {
	retriever := &fakeRetriever{passages: evidencePassages()}
	completer := &fakeCompleter{reply: "answer"}
	svc, _ := newTestService(retriever, completer)

	_, chatErr := svc.Chat(context.Background(), "u1", "figures for 2014")
	require.Nil(t, chatErr)

	require.NotEmpty(t, completer.last)
	assert.Equal(t, constant.GroundingSystemPrompt, completer.last[0].Content)
	assert.Contains(t, completer.last[1].Content, "Document: ration_cards, Page: 3")
	assert.Contains(t, completer.last[1].Content, "Years: 2013, 2014")

	userMsg := completer.last[len(completer.last)-1]
	assert.Equal(t, openai.ChatMessageRoleUser, userMsg.Role)
	assert.Contains(t, userMsg.Content, "Answer ONLY for year(s): 2014")
}

func TestChatNoEvidenceSkipsGeneration(t *testing.T) {
	retriever := &fakeRetriever{passages: nil}
	completer := &fakeCompleter{reply: "should never be used"}
	svc, _ := newTestService(retriever, completer)

	resp, chatErr := svc.Chat(context.Background(), "u1", "anything at all")
	require.Nil(t, chatErr)
	assert.Equal(t, constant.NotFoundAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 0, completer.calls, "completion service must not be called on rejection")

	// The not-found exchange is still persisted.
	history, chatErr := svc.GetHistory(context.Background(), "u1")
	require.Nil(t, chatErr)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, constant.NotFoundAnswer, history.Messages[1].Content)
}

func TestChatNoEvidenceNeverCallsModelEvenWhenSummarizationIsDue(t *testing.T) {
	retriever := &fakeRetriever{passages: nil}
	completer := &fakeCompleter{reply: "should never be used"}
	svc, store := newTestService(retriever, completer)

	// A history sitting at the summarization threshold: appending one more
	// exchange would normally fold the oldest half via the model.
	record := &model.ConversationRecord{UserID: "u1"}
	for i := 0; i < 20; i++ {
		record.Turns = append(record.Turns,
			model.Turn{Role: model.RoleUser, Content: "question"},
			model.Turn{Role: model.RoleAssistant, Content: "answer"},
		)
	}
	require.NoError(t, store.Save(context.Background(), record))

	resp, chatErr := svc.Chat(context.Background(), "u1", "anything at all")
	require.Nil(t, chatErr)
	assert.Equal(t, constant.NotFoundAnswer, resp.Answer)
	assert.Equal(t, 0, completer.calls, "rejection implies zero completion calls, summarization included")

	history, chatErr := svc.GetHistory(context.Background(), "u1")
	require.Nil(t, chatErr)
	assert.Len(t, history.Messages, 42, "rejected exchange still persisted, nothing folded")
}

func TestChatWrongYearRejectsInsteadOfFallingBack(t *testing.T) {
	// Every retrieved passage is for 2016; the query asks for 2014.
	retriever := &fakeRetriever{passages: []model.RetrievedPassage{
		{DocName: "report", PageNo: 1, Years: []int{2016}, Text: "2016 figures", Score: 0.9},
	}}
	completer := &fakeCompleter{reply: "should never be used"}
	svc, _ := newTestService(retriever, completer)

	resp, chatErr := svc.Chat(context.Background(), "u1", "what about 2014?")
	require.Nil(t, chatErr)
	assert.Equal(t, constant.NotFoundAnswer, resp.Answer)
	assert.Equal(t, 0, completer.calls)
}

func TestChatGenerationFailureLeavesHistoryUntouched(t *testing.T) {
	retriever := &fakeRetriever{passages: evidencePassages()}
	completer := &fakeCompleter{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	svc, store := newTestService(retriever, completer)

	_, chatErr := svc.Chat(context.Background(), "u1", "question")
	require.NotNil(t, chatErr)
	assert.Equal(t, model.ErrorGeneration, chatErr.Code)
	assert.Equal(t, 2, completer.calls, "one bounded retry")
	assert.Empty(t, store.records, "no half-written turn on failure")
}

func TestChatGenerationRecoversOnRetry(t *testing.T) {
	retriever := &fakeRetriever{passages: evidencePassages()}
	completer := &fakeCompleter{reply: "recovered", errs: []error{errors.New("transient")}}
	svc, _ := newTestService(retriever, completer)

	resp, chatErr := svc.Chat(context.Background(), "u1", "question")
	require.Nil(t, chatErr)
	assert.Equal(t, "recovered", resp.Answer)
	assert.Equal(t, 2, completer.calls)
}

func TestChatRetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("index unavailable")}
	svc, _ := newTestService(retriever, &fakeCompleter{})

	_, chatErr := svc.Chat(context.Background(), "u1", "question")
	require.NotNil(t, chatErr)
	assert.Equal(t, model.ErrorRetrieval, chatErr.Code)
}

func TestChatSummaryEntersPrompt(t *testing.T) {
	retriever := &fakeRetriever{passages: evidencePassages()}
	completer := &fakeCompleter{reply: "answer"}
	svc, store := newTestService(retriever, completer)

	record := &model.ConversationRecord{
		UserID:  "u1",
		Summary: "the user has been asking about ration card statistics",
		Turns:   []model.Turn{{Role: model.RoleUser, Content: "earlier question"}},
	}
	require.NoError(t, store.Save(context.Background(), record))

	_, chatErr := svc.Chat(context.Background(), "u1", "and the totals?")
	require.Nil(t, chatErr)

	var sawSummary bool
	for _, msg := range completer.last {
		if msg.Role == openai.ChatMessageRoleSystem && strings.Contains(msg.Content, "ration card statistics") {
			sawSummary = true
		}
	}
	assert.True(t, sawSummary, "rolling summary should be part of the prompt")
}

func TestUserExists(t *testing.T) {
	svc, _ := newTestService(&fakeRetriever{passages: evidencePassages()}, &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	resp, chatErr := svc.UserExists(ctx, "u1")
	require.Nil(t, chatErr)
	assert.False(t, resp.HasHistory)

	_, chatErr = svc.Chat(ctx, "u1", "hello there")
	require.Nil(t, chatErr)

	resp, chatErr = svc.UserExists(ctx, "u1")
	require.Nil(t, chatErr)
	assert.True(t, resp.HasHistory)
}

func TestClearHistory(t *testing.T) {
	svc, _ := newTestService(&fakeRetriever{passages: evidencePassages()}, &fakeCompleter{reply: "ok"})
	ctx := context.Background()

	_, chatErr := svc.Chat(ctx, "u1", "hello there")
	require.Nil(t, chatErr)

	require.Nil(t, svc.ClearHistory(ctx, "u1"))

	history, chatErr := svc.GetHistory(ctx, "u1")
	require.Nil(t, chatErr)
	assert.Empty(t, history.Messages)
}
