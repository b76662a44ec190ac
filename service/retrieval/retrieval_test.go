package retrieval

import (
	"context"
	"testing"

	"github.com/coder-lang/Chatbotscannedpdf/entity"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/repository"
	"github.com/coder-lang/Chatbotscannedpdf/repository/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct{}

func (fakeSession) Begin() error    { return nil }
func (fakeSession) Close() error    { return nil }
func (fakeSession) Commit() error   { return nil }
func (fakeSession) Rollback() error { return nil }

type fakeChunkRepo struct {
	chunks    []*entity.DocChunks
	lastLimit int
}

func (f *fakeChunkRepo) Upsert(*entity.DocChunks) error      { return nil }
func (f *fakeChunkRepo) Exists(string, int) (bool, error)    { return false, nil }
func (f *fakeChunkRepo) Count() (int64, error)               { return int64(len(f.chunks)), nil }
func (f *fakeChunkRepo) VectorSearch(condition *model.DocChunksVectorSearchCondition) ([]*entity.DocChunks, error) {
	f.lastLimit = condition.Limit
	return f.chunks, nil
}

type fakeRepoFactory struct {
	repo *fakeChunkRepo
}

func (f *fakeRepoFactory) NewSession(context.Context) interfaces.Session {
	return fakeSession{}
}

func (f *fakeRepoFactory) NewDocChunksRepository(interfaces.Session) (repository.DocChunksRepository, error) {
	return f.repo, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) GetTextEmbedding(context.Context, string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func newTestRetriever(topK, fetchK int) (*Service, *fakeChunkRepo) {
	repo := &fakeChunkRepo{chunks: []*entity.DocChunks{
		{DocName: "report.pdf", PageNo: 4, Years: "2013,2014", Text: "cards issued", Similarity: 0.9},
	}}
	svc := &Service{
		repositoryFactory: &fakeRepoFactory{repo: repo},
		embedder:          fixedEmbedder{},
		topK:              topK,
		fetchK:            fetchK,
	}
	return svc, repo
}

func TestRetrieveUsesTopKWithoutYears(t *testing.T) {
	svc, repo := newTestRetriever(8, 15)

	passages, err := svc.Retrieve(context.Background(), "how many cards were issued?", nil)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, 8, repo.lastLimit)
	assert.Equal(t, []int{2013, 2014}, passages[0].Years)
}

func TestRetrieveWidensFetchOnYearQuery(t *testing.T) {
	svc, repo := newTestRetriever(8, 15)

	_, err := svc.Retrieve(context.Background(), "figures for 2014", []int{2014})
	require.NoError(t, err)
	assert.Equal(t, 15, repo.lastLimit)
}

func TestRetrieveFetchNeverNarrowerThanTopK(t *testing.T) {
	// A deployment tuned with topK above fetchK must still widen, not
	// shrink, the candidate set on a year query.
	svc, repo := newTestRetriever(20, 15)

	_, err := svc.Retrieve(context.Background(), "figures for 2014", []int{2014})
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)
}
