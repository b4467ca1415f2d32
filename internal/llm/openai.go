package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

const (
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o-mini"
	openaiMaxTokens    = 1024
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewOpenAI creates an OpenAI provider using the OPENAI_API_KEY env var.
// OPENAI_BASE_URL overrides the endpoint, which also covers compatible
// self-hosted servers.
func NewOpenAI() (*OpenAIProvider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	url := os.Getenv("OPENAI_BASE_URL")
	if url == "" {
		url = openaiAPIURL
	}
	return &OpenAIProvider{apiKey: key, apiURL: url, client: newHTTPClient()}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = openaiDefaultModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = openaiMaxTokens
	}

	reqBody := openaiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: s.Temperature,
		Seed:        s.Seed,
		Messages: []openaiMessage{
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var result openaiResponse
	if err := postJSON(ctx, o.client, o.Name(), o.apiURL, headers, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

type openaiRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Seed        *int            `json:"seed,omitempty"`
	Messages    []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}
