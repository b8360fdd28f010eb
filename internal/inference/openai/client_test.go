package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
)

var testTopic = catalog.Topic{ID: "sdlc", Title: "Systems Development Life Cycle (SDLC)"}

func chatResponse(content string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  "gpt-4",
		Choices: []Choice{
			{Index: 0, Message: ChoiceMessage{Role: RoleAssistant, Content: content}, FinishReason: "stop"},
		},
	}
}

func newTestClient(serverURL string, retryAttempts uint) *Client {
	return &Client{
		httpClient:       resty.New().SetBaseURL(serverURL),
		model:            "gpt-4",
		maxRetryAttempts: retryAttempts,
		questionCount:    5,
	}
}

func TestClient_GenerateQuiz(t *testing.T) {
	tests := []struct {
		name              string
		retryAttempts     uint
		mockServerHandler func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request)

		wantQuestions   []inference.QuizQuestion
		wantCalls       int32
		wantErrorString string
	}{
		{
			name: "Success",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)

				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "gpt-4", reqBody.Model)
				require.NotNil(t, reqBody.ResponseFormat)
				assert.Equal(t, "json_object", reqBody.ResponseFormat.Type)
				require.Len(t, reqBody.Messages, 2)
				assert.Contains(t, reqBody.Messages[1].Content, "Difficulty Level: MEDIUM")

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`{"quiz":[{"question":"Q1","options":["a","b","c","d"],"correctAnswerIndex":2,"explanation":"because"}]}`))
			},
			wantQuestions: []inference.QuizQuestion{
				{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 2, Explanation: "because"},
			},
			wantCalls: 1,
		},
		{
			name: "Missing quiz field returns no questions",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`{}`))
			},
			wantQuestions: nil,
			wantCalls:     1,
		},
		{
			name: "Client errors are not retried",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
			},
			retryAttempts:   2,
			wantCalls:       1,
			wantErrorString: "response error 401",
		},
		{
			name: "Server errors are retried",
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				if calls == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`{"quiz":[{"question":"Q","options":["a","b","c","d"],"correctAnswerIndex":0,"explanation":"e"}]}`))
			},
			retryAttempts: 1,
			wantQuestions: []inference.QuizQuestion{
				{Question: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 0, Explanation: "e"},
			},
			wantCalls: 2,
		},
		{
			name: "Malformed JSON content",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`{"quiz": [`))
			},
			wantCalls:       1,
			wantErrorString: "json.Unmarshal",
		},
		{
			name: "Empty choices",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatCompletionResponse{ID: "x"})
			},
			wantCalls:       1,
			wantErrorString: "empty response body or choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, calls.Add(1), w, r)
			}))
			defer server.Close()

			got, err := newTestClient(server.URL, tt.retryAttempts).GenerateQuiz(context.Background(), testTopic, inference.DifficultyMedium)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErrorString != "" {
				assert.ErrorContains(t, err, tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuestions, got)
		})
	}
}

func TestClient_GenerateStudyGuide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Nil(t, reqBody.ResponseFormat)
		require.Len(t, reqBody.Messages, 1)
		assert.Contains(t, reqBody.Messages[0].Content, testTopic.Title)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("## Core Concepts\n- **Planning**"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL, 0).GenerateStudyGuide(context.Background(), testTopic)
	require.NoError(t, err)
	assert.Equal(t, inference.StudyGuide{Content: "## Core Concepts\n- **Planning**", Sources: []inference.Source{}}, got)
}

func TestNewClient(t *testing.T) {
	client := NewClient("key", "", "", 0, 0)
	defer func() { _ = client.Close() }()

	assert.Equal(t, DefaultModel, client.GetModel())
	assert.Equal(t, inference.DefaultQuizQuestionCount, client.questionCount)
}
