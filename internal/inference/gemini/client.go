// Package gemini implements inference.Client on the Gemini generateContent REST API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"

	untitledSource = "Untitled Source"
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
	client.SetHeader("x-goog-api-key", apiKey)
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

func (client *Client) GetModel() string {
	return client.model
}

type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	Tools            []Tool            `json:"tools,omitempty"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type Tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}

type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Text concatenates the text parts of the first candidate.
func (r GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// Sources lists the web pages of the first candidate's grounding, skipping chunks without a URI.
func (r GenerateContentResponse) Sources() []inference.Source {
	sources := []inference.Source{}
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return sources
	}
	for _, chunk := range r.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = untitledSource
		}
		sources = append(sources, inference.Source{URI: chunk.Web.URI, Title: title})
	}
	return sources
}

var quizSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"quiz": {
			Type:        "ARRAY",
			Description: "A list of quiz questions.",
			Items: &Schema{
				Type: "OBJECT",
				Properties: map[string]*Schema{
					"question": {Type: "STRING", Description: "The quiz question, which may include Mermaid syntax for flowcharts."},
					"options": {
						Type:        "ARRAY",
						Description: "An array of 4 possible answers.",
						Items:       &Schema{Type: "STRING"},
					},
					"correctAnswerIndex": {Type: "INTEGER", Description: "The 0-based index of the correct answer in the 'options' array."},
					"explanation":        {Type: "STRING", Description: "A brief explanation for the correct answer."},
				},
				Required: []string{"question", "options", "correctAnswerIndex", "explanation"},
			},
		},
	},
	Required: []string{"quiz"},
}

// GenerateStudyGuide implements the inference.Client interface
func (client *Client) GenerateStudyGuide(ctx context.Context, topic catalog.Topic) (inference.StudyGuide, error) {
	request := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: inference.StudyGuidePrompt(topic)}}}},
		Tools:    []Tool{{GoogleSearch: &struct{}{}}},
	}

	var result inference.StudyGuide
	if err := inference.WithRetry(ctx, client.maxRetryAttempts, func() error {
		response, err := client.generateContent(ctx, request)
		if err != nil {
			return err
		}
		content := response.Text()
		if content == "" {
			return fmt.Errorf("empty response content")
		}
		result = inference.StudyGuide{Content: content, Sources: response.Sources()}
		return nil
	}); err != nil {
		return inference.StudyGuide{}, err
	}
	return result, nil
}

// GenerateQuiz implements the inference.Client interface
func (client *Client) GenerateQuiz(ctx context.Context, topic catalog.Topic, difficulty inference.Difficulty) ([]inference.QuizQuestion, error) {
	request := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: inference.QuizPrompt(topic, difficulty, client.questionCount)}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   quizSchema,
		},
	}

	var result []inference.QuizQuestion
	if err := inference.WithRetry(ctx, client.maxRetryAttempts, func() error {
		response, err := client.generateContent(ctx, request)
		if err != nil {
			return err
		}
		questions, err := inference.ParseQuiz(response.Text())
		if err != nil {
			slog.Default().Error("Failed to parse Gemini quiz response as JSON",
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

func (client *Client) generateContent(ctx context.Context, request GenerateContentRequest) (GenerateContentResponse, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&GenerateContentResponse{}).
		Post("/models/" + url.PathEscape(client.model) + ":generateContent")
	if err != nil {
		return GenerateContentResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return GenerateContentResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	body := response.Result().(*GenerateContentResponse)
	if body == nil || len(body.Candidates) == 0 {
		return GenerateContentResponse{}, fmt.Errorf("empty response body or candidates: %s", response.String())
	}
	slog.Default().Debug("gemini response",
		"model", client.model,
		"finishReason", body.Candidates[0].FinishReason,
	)
	return *body, nil
}
