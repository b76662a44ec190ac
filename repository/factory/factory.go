package factory

import (
	"context"

	"github.com/coder-lang/Chatbotscannedpdf/repository"
	"github.com/coder-lang/Chatbotscannedpdf/repository/interfaces"
)

type Factory interface {
	NewSession(ctx context.Context) interfaces.Session
	NewDocChunksRepository(session interfaces.Session) (repository.DocChunksRepository, error)
}
