package repository

import (
	"github.com/coder-lang/Chatbotscannedpdf/entity"
	"github.com/coder-lang/Chatbotscannedpdf/model"
)

type DocChunksRepository interface {
	// Upsert inserts a chunk or replaces the row with the same
	// (doc_name, page_no) identity.
	Upsert(data *entity.DocChunks) error
	// Exists reports whether a chunk with this identity is already indexed.
	Exists(docName string, pageNo int) (bool, error)
	// Count returns the number of indexed chunks.
	Count() (int64, error)
	// VectorSearch returns the chunks nearest to the query vector by cosine
	// similarity, best first, with Similarity populated.
	VectorSearch(condition *model.DocChunksVectorSearchCondition) ([]*entity.DocChunks, error)
}
