package llm_model

type Config struct {
	Addr      string `json:"addr"`
	V1Addr    string `json:"v1Addr"`
	Model     string `json:"llm_model"`
	Token     string `json:"token"`
	MaxTokens int    `json:"maxTokens"`
}
