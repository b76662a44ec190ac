package ingest

import (
	"context"
	"fmt"

	"github.com/coder-lang/Chatbotscannedpdf/entity"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/embedding"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/tools"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/yearscan"
	"github.com/coder-lang/Chatbotscannedpdf/repository/factory"
	log "github.com/sirupsen/logrus"
)

// BatchEmbedder is the slice of the embedding client the index builder needs.
type BatchEmbedder interface {
	GetTextEmbeddingBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int
	Skipped int
	Failed  int
}

// IndexBuilder turns the corpus artifact into vector-index entries, one
// chunk per page. Chunks already present by identity are skipped, which is
// what makes re-running ingestion a safe recovery action after a partial
// failure.
type IndexBuilder struct {
	repositoryFactory factory.Factory
	embedder          BatchEmbedder
}

func NewIndexBuilder(repositoryFactory factory.Factory, embedder BatchEmbedder) *IndexBuilder {
	return &IndexBuilder{
		repositoryFactory: repositoryFactory,
		embedder:          embedder,
	}
}

// BuildIndex embeds and upserts every corpus record not already indexed.
// Year tokens are derived here, once, from the raw page text.
func (ib *IndexBuilder) BuildIndex(ctx context.Context, records []model.PageRecord) (*IndexStats, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("corpus is empty")
	}

	session := ib.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close index session")

	repo, err := ib.repositoryFactory.NewDocChunksRepository(session)
	if err != nil {
		return nil, err
	}

	stats := &IndexStats{}

	pending := make([]model.PageRecord, 0, len(records))
	for _, record := range records {
		exists, err := repo.Exists(record.DocName, record.PageNo)
		if err != nil {
			return nil, err
		}
		if exists {
			stats.Skipped++
			continue
		}
		pending = append(pending, record)
	}

	if len(pending) == 0 {
		log.Infof("index already complete: %d chunk(s) skipped", stats.Skipped)
		return stats, nil
	}

	texts := make([]string, len(pending))
	for i, record := range pending {
		texts[i] = record.CombinedText()
	}

	vectors, err := ib.embedder.GetTextEmbeddingBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(pending))
	}

	for i, record := range pending {
		chunk := &entity.DocChunks{
			DocName:   record.DocName,
			PageNo:    record.PageNo,
			Years:     yearscan.Format(yearscan.Extract(record.CombinedText())),
			Text:      record.CombinedText(),
			Embedding: embedding.VectorToString(vectors[i]),
		}
		if err := repo.Upsert(chunk); err != nil {
			log.Errorf("failed to index %s page %d: %v", record.DocName, record.PageNo, err)
			stats.Failed++
			continue
		}
		stats.Indexed++
	}

	log.Infof("index build finished: indexed=%d skipped=%d failed=%d",
		stats.Indexed, stats.Skipped, stats.Failed)
	return stats, nil
}
