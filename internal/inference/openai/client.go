package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"resty.dev/v3"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
	questionCount    int
}

func NewClient(apiKey, model, baseURL string, retryAttempts uint, questionCount int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if questionCount <= 0 {
		questionCount = inference.DefaultQuizQuestionCount
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
		questionCount:    questionCount,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

const quizFormatInstruction = `Return ONLY a JSON object of the form
{"quiz": [{"question": string, "options": [4 strings], "correctAnswerIndex": 0-based integer, "explanation": string}]}
No text outside the JSON.`

// GenerateStudyGuide implements the inference.Client interface.
// Chat completions have no search grounding, so the guide has no sources.
func (client *Client) GenerateStudyGuide(ctx context.Context, topic catalog.Topic) (inference.StudyGuide, error) {
	request := ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleUser, Content: inference.StudyGuidePrompt(topic)},
		},
	}

	var result inference.StudyGuide
	if err := inference.WithRetry(ctx, client.maxRetryAttempts, func() error {
		content, err := client.complete(ctx, request)
		if err != nil {
			return err
		}
		result = inference.StudyGuide{Content: content, Sources: []inference.Source{}}
		return nil
	}); err != nil {
		return inference.StudyGuide{}, err
	}
	return result, nil
}

// GenerateQuiz implements the inference.Client interface
func (client *Client) GenerateQuiz(ctx context.Context, topic catalog.Topic, difficulty inference.Difficulty) ([]inference.QuizQuestion, error) {
	request := ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: quizFormatInstruction},
			{Role: RoleUser, Content: inference.QuizPrompt(topic, difficulty, client.questionCount)},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	var result []inference.QuizQuestion
	if err := inference.WithRetry(ctx, client.maxRetryAttempts, func() error {
		content, err := client.complete(ctx, request)
		if err != nil {
			return err
		}
		questions, err := inference.ParseQuiz(content)
		if err != nil {
			slog.Default().Error("Failed to parse OpenAI response as JSON",
				"topicId", topic.ID,
				"difficulty", difficulty,
				"error", err)
			return err
		}
		result = questions
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *Client) complete(ctx context.Context, request ChatCompletionRequest) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}
	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", responseBody.Model,
		"usage", responseBody.Usage,
	)
	return content, nil
}
