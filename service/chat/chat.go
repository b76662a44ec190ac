package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/constant"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/memory"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/yearscan"
	"github.com/coder-lang/Chatbotscannedpdf/service/conversation"
	"github.com/coder-lang/Chatbotscannedpdf/service/retrieval"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

const defaultGenerationRetries = 1

// Retriever is the slice of the retrieval service the pipeline needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, queryYears []int) ([]model.RetrievedPassage, error)
	IndexSize(ctx context.Context) (int64, error)
}

// Service runs the per-query pipeline: retrieve, filter by year, gate,
// compose, generate, persist the exchange.
type Service struct {
	retriever           Retriever
	conversationService *conversation.Service
	llmClient           memory.ChatCompleter
	generationRetries   int
}

func NewService(retriever Retriever, conversationService *conversation.Service, llmClient memory.ChatCompleter) *Service {
	return &Service{
		retriever:           retriever,
		conversationService: conversationService,
		llmClient:           llmClient,
		generationRetries:   config.GetInstance().GetIntOrDefault(config.RagGenerationRetries, defaultGenerationRetries),
	}
}

// Chat answers one user message. An evidence-absence outcome is not an
// error: the fixed not-found answer is returned and the exchange is still
// persisted. A generation failure leaves the conversation record untouched.
func (s *Service) Chat(ctx context.Context, userID, message string) (*model.ChatResponse, *model.Error) {
	queryYears := yearscan.Extract(message)
	if len(queryYears) > 0 {
		log.Debugf("years in query for %s: %v", userID, queryYears)
	}

	passages, err := s.retriever.Retrieve(ctx, message, queryYears)
	if err != nil {
		return nil, model.NewError(model.ErrorRetrieval, err)
	}

	gate := retrieval.ConfidenceGate(retrieval.FilterByYears(passages, queryYears))
	if !gate.Proceed {
		log.Infof("confidence gate rejected query for %s: %s", userID, gate.Reason)
		// No model call is allowed on this path, so summarization waits for
		// the next generated exchange.
		if err := s.conversationService.AppendExchangeNoSummarize(ctx, userID, message, constant.NotFoundAnswer); err != nil {
			return nil, model.NewError(model.ErrorStorage, err)
		}
		return &model.ChatResponse{
			Answer:  constant.NotFoundAnswer,
			Sources: []string{},
		}, nil
	}

	contextBlock, citations := buildContextBlock(gate.Passages)

	convCtx, err := s.conversationService.Context(ctx, userID)
	if err != nil {
		return nil, model.NewError(model.ErrorStorage, err)
	}

	messages := s.assembleMessages(contextBlock, convCtx, message, queryYears)

	answer, err := s.generateWithRetry(ctx, messages)
	if err != nil {
		return nil, model.NewError(model.ErrorGeneration, err)
	}

	if err := s.conversationService.AppendExchange(ctx, userID, message, answer); err != nil {
		return nil, model.NewError(model.ErrorStorage, err)
	}

	return &model.ChatResponse{
		Answer:  answer,
		Sources: citations,
	}, nil
}

// GetHistory returns the full ordered turn list for a user.
func (s *Service) GetHistory(ctx context.Context, userID string) (*model.HistoryResponse, *model.Error) {
	turns, err := s.conversationService.History(ctx, userID)
	if err != nil {
		return nil, model.NewError(model.ErrorStorage, err)
	}
	return &model.HistoryResponse{
		UserID:   userID,
		Messages: turns,
	}, nil
}

// UserExists reports whether a user_id has prior history.
func (s *Service) UserExists(ctx context.Context, userID string) (*model.UserExistsResponse, *model.Error) {
	exists, err := s.conversationService.Exists(ctx, userID)
	if err != nil {
		return nil, model.NewError(model.ErrorStorage, err)
	}

	message := "new user, a fresh conversation will be started"
	if exists {
		message = "existing user, conversation will continue"
	}
	return &model.UserExistsResponse{
		UserID:     userID,
		HasHistory: exists,
		Message:    message,
	}, nil
}

// ClearHistory deletes the user's conversation record.
func (s *Service) ClearHistory(ctx context.Context, userID string) *model.Error {
	if err := s.conversationService.Clear(ctx, userID); err != nil {
		return model.NewError(model.ErrorStorage, err)
	}
	return nil
}

// IndexSize exposes the chunk count for the startup readiness check.
func (s *Service) IndexSize(ctx context.Context) (int64, error) {
	return s.retriever.IndexSize(ctx)
}

func (s *Service) assembleMessages(contextBlock string, convCtx *conversation.Context, message string, queryYears []int) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: constant.GroundingSystemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(constant.ContextPromptTemplate, contextBlock)},
	}

	if convCtx.Summary != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(constant.SummaryContextPromptTemplate, convCtx.Summary),
		})
	}
	for _, turn := range convCtx.RecentTurns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	userQuery := message
	if len(queryYears) > 0 {
		userQuery = fmt.Sprintf(constant.YearReminderTemplate, message, yearsLabel(queryYears))
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userQuery,
	})
}

func (s *Service) generateWithRetry(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.generationRetries; attempt++ {
		answer, err := s.llmClient.PostChatCompletionsNonStreamContent(ctx, messages)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		log.Warnf("generation attempt %d/%d failed: %v", attempt+1, s.generationRetries+1, err)
	}
	return "", lastErr
}

// buildContextBlock labels each passage with its document, page and years,
// and collects the citation list. Citations are the supplied passage set,
// not a post-hoc inferred subset.
func buildContextBlock(passages []model.RetrievedPassage) (string, []string) {
	parts := make([]string, 0, len(passages))
	citations := make([]string, 0, len(passages))

	for i, passage := range passages {
		citation := fmt.Sprintf("Document: %s, Page: %d", passage.DocName, passage.PageNo)
		citations = append(citations, citation)

		yearLabel := ""
		if len(passage.Years) > 0 {
			yearLabel = fmt.Sprintf(", Years: %s", yearsLabel(passage.Years))
		}
		parts = append(parts, fmt.Sprintf("[Chunk %d | %s%s]\n%s\n", i+1, citation, yearLabel, passage.Text))
	}

	return strings.Join(parts, "\n---\n"), citations
}

func yearsLabel(years []int) string {
	parts := make([]string, len(years))
	for i, year := range years {
		parts[i] = fmt.Sprintf("%d", year)
	}
	return strings.Join(parts, ", ")
}
