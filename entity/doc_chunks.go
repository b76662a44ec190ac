package entity

const (
	TableNameDocChunks = "doc_chunks"

	DocChunksFieldID        = "id"
	DocChunksFieldDocName   = "doc_name"
	DocChunksFieldPageNo    = "page_no"
	DocChunksFieldYears     = "years"
	DocChunksFieldText      = "text"
	DocChunksFieldEmbedding = "embedding"
)

// DocChunks is one indexed page of the corpus. Identity is
// (doc_name, page_no); re-ingestion replaces a row wholesale, it is never
// partially mutated.
type DocChunks struct {
	ID        int64  `xorm:"pk autoincr id" json:"id"`
	DocName   string `xorm:"doc_name" json:"doc_name"`
	PageNo    int    `xorm:"page_no" json:"page_no"`
	Years     string `xorm:"years" json:"years"`         // comma-joined year tokens, derived once at ingestion
	Text      string `xorm:"text" json:"text"`
	Embedding string `xorm:"embedding" json:"embedding"` // PostgreSQL vector, stored as a string

	// Similarity is only populated by VectorSearch; it is not a table column
	// the repository ever writes.
	Similarity float64 `xorm:"similarity" json:"similarity"`
}

func (e *DocChunks) TableName() string {
	return TableNameDocChunks
}
