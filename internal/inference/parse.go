package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examprep/examprep/internal/validation"
)

var ErrInvalidQuestion = errors.New("invalid quiz question")

var questionValidator *validation.Validator

func init() {
	v, err := validation.New("json", "")
	if err != nil {
		panic(fmt.Sprintf("validation.New() > %v", err))
	}
	questionValidator = v
}

// Validate checks that q can be answered: a question, at least two non-empty options,
// and a correct answer that points at one of them.
func (q QuizQuestion) Validate() error {
	if err := questionValidator.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return fmt.Errorf("%w: correctAnswerIndex %d is not one of %d options",
			ErrInvalidQuestion, q.CorrectAnswerIndex, len(q.Options))
	}
	return nil
}

// ValidQuestions drops the questions that fail Validate, keeping the order of the rest.
func ValidQuestions(questions []QuizQuestion) []QuizQuestion {
	if len(questions) == 0 {
		return questions
	}
	valid := make([]QuizQuestion, 0, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			slog.Default().Warn("dropping generated quiz question",
				"index", i,
				"error", err)
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

type quizEnvelope struct {
	Quiz []QuizQuestion `json:"quiz"`
}

// ParseQuiz decodes the {"quiz": [...]} document both providers are asked to return.
// A missing quiz field decodes to no questions; malformed questions are dropped.
func ParseQuiz(content string) ([]QuizQuestion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	var envelope quizEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return ValidQuestions(envelope.Quiz), nil
}
