package factory

import (
	"sync"

	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/embedding"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/llm_model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/redis"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/memory"
	"github.com/coder-lang/Chatbotscannedpdf/repository/factory"
	"github.com/coder-lang/Chatbotscannedpdf/repository/xormimplement"
	"github.com/coder-lang/Chatbotscannedpdf/service/chat"
	"github.com/coder-lang/Chatbotscannedpdf/service/conversation"
	"github.com/coder-lang/Chatbotscannedpdf/service/ingest"
	"github.com/coder-lang/Chatbotscannedpdf/service/retrieval"
)

var instance *Factory
var once sync.Once

// Factory wires the repositories and external clients into services.
type Factory struct {
	repositoryFactory factory.Factory

	chatOnce    sync.Once
	chatService *chat.Service
}

func GetServiceFactory() *Factory {
	once.Do(func() {
		instance = &Factory{repositoryFactory: xormimplement.GetRepositoryFactoryInstance()}
	})
	return instance
}

// NewChatService assembles the full query pipeline.
func (f *Factory) NewChatService() *chat.Service {
	f.chatOnce.Do(func() {
		embedder, err := embedding.GetInstance()
		if err != nil {
			panic("failed to create embedding client: " + err.Error())
		}

		llmClient := llm_model.GetInstance()
		store := conversation.NewRedisStore(redis.GetInstance())
		conversationService := conversation.NewService(store, memory.NewCompressor(llmClient))
		retriever := retrieval.NewService(f.repositoryFactory, embedder)

		f.chatService = chat.NewService(retriever, conversationService, llmClient)
	})
	return f.chatService
}

// NewIndexBuilder assembles the offline index build pipeline.
func (f *Factory) NewIndexBuilder() *ingest.IndexBuilder {
	embedder, err := embedding.GetInstance()
	if err != nil {
		panic("failed to create embedding client: " + err.Error())
	}
	return ingest.NewIndexBuilder(f.repositoryFactory, embedder)
}
