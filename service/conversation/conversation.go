package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/memory"
	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryTurns       = 10
	defaultSummarizeThreshold = 40
)

// Context is the bounded conversational context handed to the answer
// composer: the rolling summary plus the most recent turns.
type Context struct {
	Summary     string
	RecentTurns []model.Turn
}

// Service owns the per-user conversation records. All mutation goes through
// AppendExchange, which serializes read-modify-write per user_id so two
// concurrent requests for the same user cannot lose turns. Distinct users
// never contend.
type Service struct {
	store              Store
	compressor         *memory.Compressor
	historyTurns       int
	summarizeThreshold int

	userLocks sync.Map // user_id -> *sync.Mutex
}

func NewService(store Store, compressor *memory.Compressor) *Service {
	cfg := config.GetInstance()
	return NewServiceWithLimits(store, compressor,
		cfg.GetIntOrDefault(config.MemoryHistoryTurns, defaultHistoryTurns),
		cfg.GetIntOrDefault(config.MemorySummarizeThreshold, defaultSummarizeThreshold))
}

// NewServiceWithLimits builds a Service with explicit limits instead of
// config-driven ones.
func NewServiceWithLimits(store Store, compressor *memory.Compressor, historyTurns, summarizeThreshold int) *Service {
	return &Service{
		store:              store,
		compressor:         compressor,
		historyTurns:       historyTurns,
		summarizeThreshold: summarizeThreshold,
	}
}

func (s *Service) lockFor(userID string) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Context returns the summary and last N turns for prompt assembly. A user
// without a record gets an empty context.
func (s *Service) Context(ctx context.Context, userID string) (*Context, error) {
	record, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &Context{}, nil
	}

	turns := record.Turns
	if len(turns) > s.historyTurns {
		turns = turns[len(turns)-s.historyTurns:]
	}
	return &Context{
		Summary:     record.Summary,
		RecentTurns: turns,
	}, nil
}

// History returns the full ordered turn list.
func (s *Service) History(ctx context.Context, userID string) ([]model.Turn, error) {
	record, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []model.Turn{}, nil
	}
	return record.Turns, nil
}

// Exists reports whether the user has prior history.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	return s.store.Exists(ctx, userID)
}

// Clear removes the user's record entirely. The user_id may be reused to
// start fresh.
func (s *Service) Clear(ctx context.Context, userID string) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	return s.store.Delete(ctx, userID)
}

// AppendExchange appends the user and assistant turns of one exchange and
// folds the oldest half of the log into the summary once the turn count
// crosses the threshold. The record is saved in one write.
func (s *Service) AppendExchange(ctx context.Context, userID, userMessage, assistantMessage string) error {
	return s.appendExchange(ctx, userID, userMessage, assistantMessage, true)
}

// AppendExchangeNoSummarize appends the exchange without ever calling the
// summarizer, for paths where no model call may happen. Summarization, if
// due, runs on the next regular append.
func (s *Service) AppendExchangeNoSummarize(ctx context.Context, userID, userMessage, assistantMessage string) error {
	return s.appendExchange(ctx, userID, userMessage, assistantMessage, false)
}

func (s *Service) appendExchange(ctx context.Context, userID, userMessage, assistantMessage string, summarize bool) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &model.ConversationRecord{UserID: userID}
	}

	now := time.Now()
	record.Turns = append(record.Turns,
		model.Turn{Role: model.RoleUser, Content: userMessage, Timestamp: now},
		model.Turn{Role: model.RoleAssistant, Content: assistantMessage, Timestamp: now},
	)
	record.LastActivity = now

	if summarize && s.compressor.ShouldCompress(len(record.Turns), s.summarizeThreshold) {
		keep := len(record.Turns) / 2
		kept, summary, err := s.compressor.CompressOldTurns(ctx, record.Turns, keep, record.Summary)
		if err != nil {
			log.Warnf("conversation compression failed for %s, keeping full log: %v", userID, err)
		} else {
			record.Turns = kept
			record.Summary = summary
			log.Infof("compressed conversation for %s to %d turns", userID, len(kept))
		}
	}

	return s.store.Save(ctx, record)
}
