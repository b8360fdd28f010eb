// Package quiz runs one quiz session: difficulty selection, generation, timed answering and scoring.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/savedquestion"
)

const (
	EmptyQuizMessage   = "The AI model returned no questions. Please try again."
	FailedQuizMessage  = "Failed to generate the quiz. The AI model may be temporarily unavailable."
	QuestionSavedMsg   = "Question saved!"
	QuestionRemovedMsg = "Question removed from saved items."
)

var (
	ErrInvalidTransition = errors.New("action is not allowed in the current quiz state")
	ErrNotAnswered       = errors.New("current question has no answer yet")
	ErrInvalidOption     = errors.New("option is out of range")
)

// QuestionGenerator produces the questions of a quiz.
type QuestionGenerator interface {
	GenerateQuiz(ctx context.Context, topic catalog.Topic, difficulty inference.Difficulty) ([]inference.QuizQuestion, error)
}

// ResultRecorder keeps the results of finished quizzes.
type ResultRecorder interface {
	Append(ctx context.Context, result history.QuizResult) error
}

// QuestionSaver keeps questions the user marks for later review.
type QuestionSaver interface {
	Toggle(ctx context.Context, q savedquestion.SavedQuestion) (bool, error)
	IsSaved(id string) bool
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithObserver registers fn for every event. fn is called without the controller lock held.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// Controller is the quiz session of one topic.
// Every transition goes through the current state value; generation results that arrive
// after a Reset, Close or newer Start are discarded.
type Controller struct {
	topic     catalog.Topic
	generator QuestionGenerator
	results   ResultRecorder
	saved     QuestionSaver
	clock     Clock
	observers []func(Event)

	mu    sync.Mutex
	timer TimerDuration
	state state
	token uint64
}

func NewController(topic catalog.Topic, generator QuestionGenerator, results ResultRecorder, saved QuestionSaver, opts ...Option) *Controller {
	c := &Controller{
		topic:     topic,
		generator: generator,
		results:   results,
		saved:     saved,
		clock:     systemClock{},
		state:     selectingDifficulty{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Topic() catalog.Topic {
	return c.topic
}

// SetTimer chooses the per-question countdown. It is only allowed before a quiz starts.
func (c *Controller) SetTimer(d TimerDuration) (Snapshot, error) {
	c.mu.Lock()
	if _, ok := c.state.(selectingDifficulty); !ok {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("SetTimer() > %w", ErrInvalidTransition)
	}
	c.timer = d
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
	return snapshot, nil
}

// Start requests the questions at difficulty and returns at once in the loading state.
// The returned channel is closed when the generation has been applied or discarded.
func (c *Controller) Start(ctx context.Context, difficulty inference.Difficulty) (<-chan struct{}, error) {
	if _, err := inference.ParseDifficulty(string(difficulty)); err != nil {
		return nil, fmt.Errorf("Start() > %w", err)
	}

	c.mu.Lock()
	if _, ok := c.state.(selectingDifficulty); !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("Start() > %w", ErrInvalidTransition)
	}
	c.token++
	token := c.token
	genCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.state = loading{difficulty: difficulty, cancel: cancel}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		questions, err := c.generator.GenerateQuiz(genCtx, c.topic, difficulty)
		c.applyGeneration(token, difficulty, questions, err)
	}()
	return done, nil
}

func (c *Controller) applyGeneration(token uint64, difficulty inference.Difficulty, questions []inference.QuizQuestion, err error) {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		slog.Default().Debug("discarding superseded quiz generation",
			"topicId", c.topic.ID,
			"difficulty", difficulty)
		return
	}

	questions = inference.ValidQuestions(questions)
	switch {
	case err != nil:
		slog.Default().Error("failed to generate quiz",
			"topicId", c.topic.ID,
			"difficulty", difficulty,
			"error", err)
		c.state = failed{difficulty: difficulty, message: FailureMessage(err)}
	case len(questions) == 0:
		slog.Default().Warn("quiz generation returned no questions",
			"topicId", c.topic.ID,
			"difficulty", difficulty)
		c.state = failed{difficulty: difficulty, message: EmptyQuizMessage}
	default:
		c.state = &inProgress{
			difficulty: difficulty,
			questions:  questions,
			answers:    make([]AnswerState, len(questions)),
		}
		c.beginQuestionLocked()
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
}

// Select records option as the answer to the current question. Only the first answer counts.
func (c *Controller) Select(option int) (Snapshot, error) {
	c.mu.Lock()
	current, ok := c.state.(*inProgress)
	if !ok {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("Select() > %w", ErrInvalidTransition)
	}
	question := current.questions[current.current]
	if option < 0 || option >= len(question.Options) {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("Select(%d) > %w", option, ErrInvalidOption)
	}
	changed := current.answers[current.current].record(option, question.IsCorrect(option))
	if changed {
		current.stopCountdown()
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
	}
	return snapshot, nil
}

// Next moves to the following question, or finishes the quiz on the last one.
// Finishing records the result in the history; a failure to persist it is logged and ignored.
func (c *Controller) Next(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	current, ok := c.state.(*inProgress)
	if !ok {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("Next() > %w", ErrInvalidTransition)
	}
	if !current.answers[current.current].Answered() {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("Next() > %w", ErrNotAnswered)
	}

	current.stopCountdown()
	if current.current < len(current.questions)-1 {
		current.current++
		c.beginQuestionLocked()
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
		return snapshot, nil
	}

	score := Score(current.answers)
	result := history.NewResult(c.topic, current.difficulty, score, len(current.questions), c.clock.Now())
	c.state = finished{
		difficulty: current.difficulty,
		questions:  current.questions,
		answers:    current.answers,
		score:      score,
		result:     result,
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.results != nil {
		if err := c.results.Append(ctx, result); err != nil {
			slog.Default().Warn("failed to save quiz result",
				"topicId", c.topic.ID,
				"error", err)
		}
	}
	c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
	return snapshot, nil
}

// ToggleSave saves or unsaves the current question. It does not change the quiz state.
func (c *Controller) ToggleSave(ctx context.Context) (bool, error) {
	c.mu.Lock()
	current, ok := c.state.(*inProgress)
	if !ok {
		c.mu.Unlock()
		return false, fmt.Errorf("ToggleSave() > %w", ErrInvalidTransition)
	}
	if c.saved == nil {
		c.mu.Unlock()
		return false, fmt.Errorf("ToggleSave() > %w", ErrInvalidTransition)
	}
	q := savedquestion.New(c.topic.ID, c.topic.Title, current.current, current.questions[current.current])
	c.mu.Unlock()

	saved, err := c.saved.Toggle(ctx, q)
	c.emit(Event{Kind: EventStateChanged, Snapshot: c.Snapshot()})
	if err != nil {
		return saved, fmt.Errorf("saved.Toggle() > %w", err)
	}
	return saved, nil
}

// Reset returns to difficulty selection after a failure or a finished quiz. The timer choice is kept.
func (c *Controller) Reset() (Snapshot, error) {
	c.mu.Lock()
	switch c.state.(type) {
	case failed, finished:
	default:
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("Reset() > %w", ErrInvalidTransition)
	}
	c.token++
	c.state = selectingDifficulty{}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, Snapshot: snapshot})
	return snapshot, nil
}

// Close abandons the session: the countdown stops and an in-flight generation is cancelled and ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	switch s := c.state.(type) {
	case loading:
		s.cancel()
	case *inProgress:
		s.stopCountdown()
	}
	c.state = selectingDifficulty{}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// beginQuestionLocked starts the countdown of the current question when a timer is set
// and the question has no answer yet.
func (c *Controller) beginQuestionLocked() {
	current, ok := c.state.(*inProgress)
	if !ok {
		return
	}
	current.stopCountdown()
	current.timeLeft = 0
	if !c.timer.Enabled() || current.answers[current.current].Answered() {
		return
	}
	current.timeLeft = int(c.timer)
	current.countdown = startCountdown(c.clock, c.onTick)
}

func (c *Controller) onTick(cd *countdown) {
	c.mu.Lock()
	current, ok := c.state.(*inProgress)
	if !ok || current.countdown != cd {
		c.mu.Unlock()
		return
	}

	current.timeLeft--
	events := []EventKind{EventTimerTicked}
	if current.timeLeft <= 0 {
		current.timeLeft = 0
		current.stopCountdown()
		if current.answers[current.current].record(TimedOutOption, false) {
			events = append(events, EventTimedOut)
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	for _, kind := range events {
		c.emit(Event{Kind: kind, Snapshot: snapshot})
	}
}

func (c *Controller) emit(event Event) {
	for _, observer := range c.observers {
		observer(event)
	}
}

// Score counts the correct answers.
func Score(answers []AnswerState) int {
	score := 0
	for _, answer := range answers {
		if answer.IsCorrect != nil && *answer.IsCorrect {
			score++
		}
	}
	return score
}

// FailureMessage is the text shown when generating a quiz fails.
func FailureMessage(err error) string {
	if errors.Is(err, inference.ErrMissingAPIKey) {
		return err.Error()
	}
	return FailedQuizMessage
}
