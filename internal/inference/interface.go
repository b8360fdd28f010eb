package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/examprep/examprep/internal/catalog"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client generates study material for a topic
type Client interface {
	GenerateStudyGuide(ctx context.Context, topic catalog.Topic) (StudyGuide, error)
	GenerateQuiz(ctx context.Context, topic catalog.Topic, difficulty Difficulty) ([]QuizQuestion, error)
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid difficulty %q, must be one of easy, medium, hard", s)
}

// Source is a web page the model grounded a study guide on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type StudyGuide struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources"`
}

// QuizQuestion is one multiple-choice question. Question may embed a fenced mermaid diagram.
type QuizQuestion struct {
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// IsCorrect reports whether option is the right answer.
func (q QuizQuestion) IsCorrect(option int) bool {
	return option == q.CorrectAnswerIndex
}

const (
	DefaultQuizQuestionCount = 5
	DefaultMaxRetryAttempts  = 0
)

var ErrMissingAPIKey = errors.New("API Key not found")

// Unconfigured stands in for a provider whose API key is not set.
// Every generation fails with ErrMissingAPIKey, naming the variable to set.
type Unconfigured struct {
	KeyEnv string
}

func (u Unconfigured) err() error {
	return fmt.Errorf("%w. Please set %s in the environment or the config file", ErrMissingAPIKey, u.KeyEnv)
}

func (u Unconfigured) GenerateStudyGuide(context.Context, catalog.Topic) (StudyGuide, error) {
	return StudyGuide{}, u.err()
}

func (u Unconfigured) GenerateQuiz(context.Context, catalog.Topic, Difficulty) ([]QuizQuestion, error) {
	return nil, u.err()
}
