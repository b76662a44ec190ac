package model

// DocChunksVectorSearchCondition is a corpus-wide nearest-neighbor query.
type DocChunksVectorSearchCondition struct {
	QueryVector string `json:"query_vector"` // pgvector literal, e.g. [0.1,0.2]
	Limit       int    `json:"limit"`
}
