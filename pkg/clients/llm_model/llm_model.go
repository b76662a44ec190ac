package llm_model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const (
	clientNameChatModel = "chat_model"

	// Answers must be deterministic over a fixed corpus, so temperature is
	// pinned rather than configurable.
	answerTemperature float32 = 0
)

// ClientChatModel is the answer-generation client.
type ClientChatModel struct {
	config *Config
}

var (
	instance *ClientChatModel
	once     sync.Once
)

func GetInstance() *ClientChatModel {
	once.Do(func() {
		conf := &Config{
			Addr:      config.GetInstance().GetString(config.ClientChatModelAddr),
			V1Addr:    config.GetInstance().GetString(config.ClientChatModelAddr),
			Model:     config.GetInstance().GetString(config.ClientChatModelModel),
			Token:     config.GetInstance().GetString(config.ClientChatModelApiKey),
			MaxTokens: cast.ToInt(config.GetInstance().Get(config.ClientChatModelMaxTokens)),
		}

		instance = &ClientChatModel{
			config: conf,
		}
	})
	return instance
}

// PostChatCompletionsNonStream sends a non-streaming completion request and
// returns the full response.
func (zc *ClientChatModel) PostChatCompletionsNonStream(c context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	defaultReq := openai.DefaultConfig(zc.config.Token)
	defaultReq.BaseURL = zc.config.V1Addr

	client := openai.NewClientWithConfig(defaultReq)

	request := zc.buildRequest(messages)

	// Full request dump, json formatted, only serialized at debug level.
	if log.GetLevel() == log.DebugLevel {
		requestJson, err := json.MarshalIndent(request, "", "  ")
		if err != nil {
			log.Errorf("%s chat completion request json marshal error: %v", clientNameChatModel, err)
			return nil, err
		}
		// Written straight to stdout so the log formatter does not escape newlines.
		if _, err := fmt.Fprintf(os.Stdout, "[DEBUG] %s chat completion request:\n%s\n", clientNameChatModel, string(requestJson)); err != nil {
			log.Warnf("%s failed to write debug output: %v", clientNameChatModel, err)
		}
	}

	response, err := client.CreateChatCompletion(c, request)

	if err != nil {
		log.Errorf("%s chat completion error: %v", clientNameChatModel, err)
		return nil, err
	}

	if log.GetLevel() == log.DebugLevel {
		responseJson, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			log.Errorf("%s chat completion response json marshal error: %v", clientNameChatModel, err)
		} else {
			if _, err := fmt.Fprintf(os.Stdout, "[DEBUG] %s chat completion response:\n%s\n", clientNameChatModel, string(responseJson)); err != nil {
				log.Warnf("%s failed to write debug output: %v", clientNameChatModel, err)
			}
		}
	}

	return &response, nil
}

func (zc *ClientChatModel) buildRequest(messages []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       zc.config.Model,
		Messages:    messages,
		MaxTokens:   zc.config.MaxTokens,
		Temperature: answerTemperature,
		Stream:      false,
	}
}

// PostChatCompletionsNonStreamContent is PostChatCompletionsNonStream reduced
// to the first choice's content.
func (zc *ClientChatModel) PostChatCompletionsNonStreamContent(c context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	response, err := zc.PostChatCompletionsNonStream(c, messages)
	if err != nil {
		return "", err
	}

	if response == nil {
		log.Errorf("%s chat completion response is nil", clientNameChatModel)
		return "", fmt.Errorf("chat completion response is nil")
	}

	if len(response.Choices) == 0 {
		log.Errorf("%s chat completion response has no choices", clientNameChatModel)
		return "", fmt.Errorf("chat completion response has no choices")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		log.Warnf("%s chat completion response content is empty", clientNameChatModel)
	}

	return content, nil
}
