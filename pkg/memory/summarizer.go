package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/coder-lang/Chatbotscannedpdf/constant"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// ChatCompleter is the slice of the chat model client the memory layer needs.
type ChatCompleter interface {
	PostChatCompletionsNonStreamContent(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Summarizer turns a run of conversation turns into a short factual summary.
type Summarizer struct {
	llmClient ChatCompleter
}

func NewSummarizer(llmClient ChatCompleter) *Summarizer {
	return &Summarizer{
		llmClient: llmClient,
	}
}

// SummarizeConversation compresses turns into a summary. priorSummary, when
// non-empty, is folded in so earlier compressions are not lost.
func (s *Summarizer) SummarizeConversation(ctx context.Context, turns []model.Turn, priorSummary string) (string, error) {
	if len(turns) == 0 {
		return priorSummary, nil
	}

	conversationText := buildConversationText(turns)
	if priorSummary != "" {
		conversationText = fmt.Sprintf(constant.PriorSummaryPromptTemplate, priorSummary, conversationText)
	}

	summaryPrompt := fmt.Sprintf(constant.SummaryUserPromptTemplate, conversationText)

	summaryMessages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: constant.SummarySystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: summaryPrompt,
		},
	}

	summary, err := s.llmClient.PostChatCompletionsNonStreamContent(ctx, summaryMessages)
	if err != nil {
		log.Warnf("Failed to generate summary: %v", err)
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	return strings.TrimSpace(summary), nil
}

func buildConversationText(turns []model.Turn) string {
	var builder strings.Builder
	for i, turn := range turns {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(turn.Role)
		builder.WriteString(": ")
		builder.WriteString(turn.Content)
	}
	return builder.String()
}
