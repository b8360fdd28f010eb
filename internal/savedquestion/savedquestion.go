// Package savedquestion stores quiz questions the user kept for later review.
package savedquestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/transfer"
)

const (
	StorageKey     = "nysit-saved-questions"
	ExportFileName = "saved_questions.json"

	idTextPrefixLength = 20
)

const (
	ClearConfirmation = "Are you sure you want to remove all saved questions? This cannot be undone."
	RemovedMessage    = "Question removed."
	ClearedMessage    = "All saved questions have been removed."
)

var ImportMessages = transfer.Messages{
	NotASequence: "Error: Imported file is not a valid saved questions format.",
	NoValidItems: "Warning: No valid questions found in the imported file.",
	Imported:     "Successfully imported %d new questions.",
	SaveFailed:   "Error: Could not save the imported questions.",
}

// QuestionID identifies a question by its topic, its position in the quiz and the start of its text.
// Two questions sharing all three collide; stored data already depends on this format.
func QuestionID(topicID string, index int, text string) string {
	runes := []rune(text)
	if len(runes) > idTextPrefixLength {
		runes = runes[:idTextPrefixLength]
	}
	return topicID + "-" + strconv.Itoa(index) + "-" + string(runes)
}

type SavedQuestion struct {
	inference.QuizQuestion
	ID         string `json:"id"`
	TopicID    string `json:"topicId"`
	TopicTitle string `json:"topicTitle"`
}

// New wraps the question at index of a quiz on the given topic.
func New(topicID, topicTitle string, index int, question inference.QuizQuestion) SavedQuestion {
	return SavedQuestion{
		QuizQuestion: question,
		ID:           QuestionID(topicID, index, question.Question),
		TopicID:      topicID,
		TopicTitle:   topicTitle,
	}
}

// OptionLabel returns "A", "B", ... for the option at i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

type importedQuestion struct {
	ID                 string   `json:"id" validate:"required"`
	TopicID            string   `json:"topicId"`
	TopicTitle         string   `json:"topicTitle"`
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

func (q importedQuestion) toSaved() SavedQuestion {
	return SavedQuestion{
		QuizQuestion: inference.QuizQuestion{
			Question:           q.Question,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Explanation:        q.Explanation,
		},
		ID:         q.ID,
		TopicID:    q.TopicID,
		TopicTitle: q.TopicTitle,
	}
}

// collection is persisted as a JSON object of id to question. Key order is kept so that
// the list reads back in the order questions were saved.
type collection struct {
	order []string
	byID  map[string]SavedQuestion
}

func newCollection() collection {
	return collection{byID: map[string]SavedQuestion{}}
}

func (c *collection) put(q SavedQuestion) {
	if _, ok := c.byID[q.ID]; !ok {
		c.order = append(c.order, q.ID)
	}
	c.byID[q.ID] = q
}

func (c *collection) delete(id string) {
	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

func (c collection) list() []SavedQuestion {
	questions := make([]SavedQuestion, 0, len(c.order))
	for _, id := range c.order {
		questions = append(questions, c.byID[id])
	}
	return questions
}

func (c collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal() > %w", err)
		}
		value, err := json.Marshal(c.byID[id])
		if err != nil {
			return nil, fmt.Errorf("json.Marshal() > %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *collection) UnmarshalJSON(data []byte) error {
	*c = newCollection()
	if string(data) == "null" {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("decoder.Token() > %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object of saved questions, got %v", token)
	}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("decoder.Token() > %w", err)
		}
		id, _ := token.(string)
		var q SavedQuestion
		if err := decoder.Decode(&q); err != nil {
			return fmt.Errorf("decoder.Decode(%s) > %w", id, err)
		}
		if q.ID == "" {
			q.ID = id
		}
		c.put(q)
	}
	return nil
}

// Store holds the saved questions. Every change re-reads the backend first so that questions
// saved by another process survive, then writes through.
type Store struct {
	store     storage.Store
	mu        sync.Mutex
	questions collection
}

func NewStore(ctx context.Context, store storage.Store) *Store {
	questions := storage.LoadJSON[collection](ctx, store, StorageKey)
	if questions.byID == nil {
		questions = newCollection()
	}
	return &Store{
		store:     store,
		questions: questions,
	}
}

// Refresh replaces the in-memory questions with what the backend holds now.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

// reloadLocked keeps the in-memory copy when the backend cannot be read.
func (s *Store) reloadLocked(ctx context.Context) {
	questions, err := storage.ReadJSON[collection](ctx, s.store, StorageKey)
	if err != nil {
		slog.Default().Warn("failed to reload saved questions, using the in-memory copy",
			"error", err)
		return
	}
	if questions.byID == nil {
		questions = newCollection()
	}
	s.questions = questions
}

// List returns the saved questions in the order they were saved.
func (s *Store) List() []SavedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions.list()
}

func (s *Store) IsSaved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.questions.byID[id]
	return ok
}

func (s *Store) Get(id string) (SavedQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions.byID[id]
	return q, ok
}

// Save inserts or replaces q.
func (s *Store) Save(ctx context.Context, q SavedQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	s.questions.put(q)
	return s.persist(ctx)
}

func (s *Store) Unsave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	s.questions.delete(id)
	return s.persist(ctx)
}

// Toggle saves q when it is not saved and removes it otherwise. It reports whether q is saved afterwards.
func (s *Store) Toggle(ctx context.Context, q SavedQuestion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	if _, ok := s.questions.byID[q.ID]; ok {
		s.questions.delete(q.ID)
		return false, s.persist(ctx)
	}
	s.questions.put(q)
	return true, s.persist(ctx)
}

// Clear removes every saved question. Asking the user for confirmation is the caller's job.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = newCollection()
	return storage.RemoveKey(ctx, s.store, StorageKey)
}

// Import inserts the valid questions of an import file whose ids are not saved yet.
// Existing questions are never overwritten.
func (s *Store) Import(ctx context.Context, r io.Reader) (transfer.Summary, error) {
	items, summary, err := transfer.DecodeItems[importedQuestion](r)
	if err != nil {
		return summary, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	for _, item := range items {
		if _, ok := s.questions.byID[item.ID]; ok {
			continue
		}
		s.questions.put(item.toSaved())
		summary.Imported++
	}
	if summary.Imported == 0 {
		return summary, nil
	}
	return summary, s.persist(ctx)
}

// Export writes the saved questions as an indented JSON list.
func (s *Store) Export(w io.Writer) error {
	questions := s.List()
	if len(questions) == 0 {
		return transfer.ErrNothingToExport
	}
	return transfer.Encode(w, questions)
}

// ExportFile writes the saved questions to dir/saved_questions.json.
func (s *Store) ExportFile(dir string) (string, error) {
	return transfer.WriteFile(dir, ExportFileName, s.List())
}

func (s *Store) persist(ctx context.Context) error {
	return storage.SaveJSON(ctx, s.store, StorageKey, s.questions)
}
