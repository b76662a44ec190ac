package xormimplement

import (
	"fmt"

	"github.com/coder-lang/Chatbotscannedpdf/entity"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/repository"
	"xorm.io/builder"
)

type DocChunksRepository struct {
	session *Session
}

func NewDocChunksRepository(session *Session) repository.DocChunksRepository {
	return &DocChunksRepository{session: session}
}

// Upsert replaces the whole row on identity conflict so re-ingesting a page
// never leaves a half-updated chunk behind.
func (r *DocChunksRepository) Upsert(data *entity.DocChunks) error {
	if data == nil {
		return fmt.Errorf("doc_chunks data cannot be nil")
	}
	if data.DocName == "" {
		return fmt.Errorf("doc_name is required")
	}
	if data.PageNo <= 0 {
		return fmt.Errorf("page_no must be greater than 0")
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (doc_name, page_no, years, text, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (doc_name, page_no) DO UPDATE
		SET years = EXCLUDED.years,
		    text = EXCLUDED.text,
		    embedding = EXCLUDED.embedding
	`, entity.TableNameDocChunks)

	_, err := r.session.Exec(sql, data.DocName, data.PageNo, data.Years, data.Text, data.Embedding)
	if err != nil {
		return fmt.Errorf("failed to upsert doc_chunks: %w", err)
	}

	return nil
}

func (r *DocChunksRepository) Exists(docName string, pageNo int) (bool, error) {
	if docName == "" {
		return false, fmt.Errorf("doc_name is required")
	}
	if pageNo <= 0 {
		return false, fmt.Errorf("page_no must be greater than 0")
	}

	count, err := r.session.Table(entity.TableNameDocChunks).
		Where(builder.Eq{
			entity.DocChunksFieldDocName: docName,
			entity.DocChunksFieldPageNo:  pageNo,
		}).
		Count(&entity.DocChunks{})
	if err != nil {
		return false, fmt.Errorf("failed to check doc_chunks existence: %w", err)
	}

	return count > 0, nil
}

func (r *DocChunksRepository) Count() (int64, error) {
	count, err := r.session.Table(entity.TableNameDocChunks).Count(&entity.DocChunks{})
	if err != nil {
		return 0, fmt.Errorf("failed to count doc_chunks: %w", err)
	}
	return count, nil
}

// VectorSearch runs a cosine nearest-neighbor query with pgvector.
// 1 - (embedding <=> query_vector) is the similarity score, larger is closer.
func (r *DocChunksRepository) VectorSearch(condition *model.DocChunksVectorSearchCondition) ([]*entity.DocChunks, error) {
	if condition == nil {
		return nil, fmt.Errorf("vector search condition cannot be nil")
	}
	if condition.QueryVector == "" {
		return nil, fmt.Errorf("query_vector is required")
	}
	if condition.Limit <= 0 {
		condition.Limit = 10
	}

	sql := fmt.Sprintf(`
		SELECT id, doc_name, page_no, years, text, embedding,
		       1 - (embedding <=> '%s'::vector) as similarity
		FROM %s
		ORDER BY embedding <=> '%s'::vector
		LIMIT %d
	`, condition.QueryVector, entity.TableNameDocChunks, condition.QueryVector, condition.Limit)

	results := make([]*entity.DocChunks, 0, condition.Limit)
	if err := r.session.SQL(sql).Find(&results); err != nil {
		return nil, fmt.Errorf("failed to vector search doc_chunks: %w", err)
	}

	return results, nil
}
