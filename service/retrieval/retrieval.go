package retrieval

import (
	"context"
	"fmt"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/embedding"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/tools"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/yearscan"
	"github.com/coder-lang/Chatbotscannedpdf/repository/factory"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTopK   = 8
	defaultFetchK = 15
)

// Embedder is the slice of the embedding client the retriever needs.
type Embedder interface {
	GetTextEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Service embeds a query and pulls the nearest page chunks from the vector
// index. When the query carries year tokens it fetches a wider candidate set
// so the temporal filter has enough survivors to rank.
type Service struct {
	repositoryFactory factory.Factory
	embedder          Embedder
	topK              int
	fetchK            int
}

func NewService(repositoryFactory factory.Factory, embedder Embedder) *Service {
	cfg := config.GetInstance()
	return &Service{
		repositoryFactory: repositoryFactory,
		embedder:          embedder,
		topK:              cfg.GetIntOrDefault(config.RagTopK, defaultTopK),
		fetchK:            cfg.GetIntOrDefault(config.RagFetchK, defaultFetchK),
	}
}

// Retrieve returns ranked passages for the query, best first. queryYears is
// the year set already extracted from the query by the caller.
func (s *Service) Retrieve(ctx context.Context, query string, queryYears []int) ([]model.RetrievedPassage, error) {
	vector, err := s.embedder.GetTextEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := s.topK
	if len(queryYears) > 0 {
		// The temporal filter prunes after the fact, so the candidate set is
		// widened, never narrowed, relative to topK.
		limit = max(s.topK, s.fetchK)
	}

	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close retrieval session")

	repo, err := s.repositoryFactory.NewDocChunksRepository(session)
	if err != nil {
		return nil, err
	}

	chunks, err := repo.VectorSearch(&model.DocChunksVectorSearchCondition{
		QueryVector: embedding.VectorToString(vector),
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	passages := make([]model.RetrievedPassage, 0, len(chunks))
	for _, chunk := range chunks {
		passages = append(passages, model.RetrievedPassage{
			DocName: chunk.DocName,
			PageNo:  chunk.PageNo,
			Years:   yearscan.Parse(chunk.Years),
			Text:    chunk.Text,
			Score:   chunk.Similarity,
		})
	}

	log.Debugf("retrieved %d passages for query (limit=%d, query_years=%v)", len(passages), limit, queryYears)
	return passages, nil
}

// IndexSize reports how many chunks the vector index holds.
func (s *Service) IndexSize(ctx context.Context) (int64, error) {
	session := s.repositoryFactory.NewSession(ctx)
	defer tools.ErrorWithPrintContext(session.Close, "close retrieval session")

	repo, err := s.repositoryFactory.NewDocChunksRepository(session)
	if err != nil {
		return 0, err
	}
	return repo.Count()
}
