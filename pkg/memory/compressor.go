package memory

import (
	"context"

	"github.com/coder-lang/Chatbotscannedpdf/model"
)

// Compressor folds old conversation turns into a rolling summary once a
// user's history grows past the threshold, keeping recent turns verbatim.
type Compressor struct {
	summarizer *Summarizer
}

func NewCompressor(llmClient ChatCompleter) *Compressor {
	return &Compressor{
		summarizer: NewSummarizer(llmClient),
	}
}

// CompressOldTurns keeps the newest maxKeep turns and summarizes the rest,
// merging priorSummary into the new summary. A summarization failure is
// returned untouched: turns are only dropped when the summary that replaces
// them was actually produced.
func (c *Compressor) CompressOldTurns(ctx context.Context, turns []model.Turn, maxKeep int, priorSummary string) ([]model.Turn, string, error) {
	if len(turns) <= maxKeep {
		return turns, priorSummary, nil
	}

	keepTurns := turns[len(turns)-maxKeep:]
	compressTurns := turns[:len(turns)-maxKeep]

	summary, err := c.summarizer.SummarizeConversation(ctx, compressTurns, priorSummary)
	if err != nil {
		return nil, "", err
	}

	return keepTurns, summary, nil
}

// ShouldCompress reports whether the turn count has crossed the threshold.
func (c *Compressor) ShouldCompress(turnCount int, threshold int) bool {
	return turnCount > threshold
}
