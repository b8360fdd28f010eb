package quiz

import (
	"context"
	"fmt"
	"slices"

	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/savedquestion"
)

// TimedOutOption is the selected option recorded when the countdown runs out.
const TimedOutOption = -1

type Phase int

const (
	PhaseSelectingDifficulty Phase = iota
	PhaseLoading
	PhaseFailed
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectingDifficulty:
		return "selecting_difficulty"
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "failed"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AnswerState is how one question was resolved. Both fields are nil until it is answered,
// and it is written at most once.
type AnswerState struct {
	SelectedOption *int  `json:"selectedOption"`
	IsCorrect      *bool `json:"isCorrect"`
}

func (a AnswerState) Answered() bool {
	return a.SelectedOption != nil
}

func (a AnswerState) TimedOut() bool {
	return a.SelectedOption != nil && *a.SelectedOption == TimedOutOption
}

func (a *AnswerState) record(option int, correct bool) bool {
	if a.Answered() {
		return false
	}
	a.SelectedOption = &option
	a.IsCorrect = &correct
	return true
}

// state is one of selectingDifficulty, loading, failed, *inProgress or finished.
type state interface {
	phase() Phase
}

type selectingDifficulty struct{}

func (selectingDifficulty) phase() Phase { return PhaseSelectingDifficulty }

type loading struct {
	difficulty inference.Difficulty
	cancel     context.CancelFunc
}

func (loading) phase() Phase { return PhaseLoading }

type failed struct {
	difficulty inference.Difficulty
	message    string
}

func (failed) phase() Phase { return PhaseFailed }

type inProgress struct {
	difficulty inference.Difficulty
	questions  []inference.QuizQuestion
	answers    []AnswerState
	current    int
	timeLeft   int
	countdown  *countdown
}

func (*inProgress) phase() Phase { return PhaseInProgress }

func (s *inProgress) stopCountdown() {
	s.countdown.stop()
	s.countdown = nil
}

type finished struct {
	difficulty inference.Difficulty
	questions  []inference.QuizQuestion
	answers    []AnswerState
	score      int
	result     history.QuizResult
}

func (finished) phase() Phase { return PhaseFinished }

// Snapshot is a copy of the session for display.
type Snapshot struct {
	TopicID    string                   `json:"topicId"`
	TopicTitle string                   `json:"topicTitle"`
	Phase      Phase                    `json:"phase"`
	Timer      TimerDuration            `json:"timer"`
	Difficulty inference.Difficulty     `json:"difficulty,omitempty"`
	Questions  []inference.QuizQuestion `json:"questions,omitempty"`
	Answers    []AnswerState            `json:"answers,omitempty"`
	Current    int                      `json:"current"`
	// TimeLeft is the countdown of the current question in seconds, nil when no countdown runs.
	TimeLeft *int   `json:"timeLeft,omitempty"`
	Score    int    `json:"score"`
	Error    string `json:"error,omitempty"`
	// Result is set once the quiz is finished.
	Result *history.QuizResult `json:"result,omitempty"`
	// SavedCurrent tells whether the current question is among the saved questions.
	SavedCurrent bool `json:"savedCurrent"`
}

// Total is the number of questions in the quiz.
func (s Snapshot) Total() int {
	return len(s.Questions)
}

// CurrentQuestion returns the question being displayed.
func (s Snapshot) CurrentQuestion() (inference.QuizQuestion, AnswerState, bool) {
	if s.Phase != PhaseInProgress || s.Current >= len(s.Questions) {
		return inference.QuizQuestion{}, AnswerState{}, false
	}
	return s.Questions[s.Current], s.Answers[s.Current], true
}

// IsLast reports whether the current question is the last one.
func (s Snapshot) IsLast() bool {
	return s.Current == len(s.Questions)-1
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		TopicID:    c.topic.ID,
		TopicTitle: c.topic.Title,
		Phase:      c.state.phase(),
		Timer:      c.timer,
	}
	switch s := c.state.(type) {
	case loading:
		snapshot.Difficulty = s.difficulty
	case failed:
		snapshot.Difficulty = s.difficulty
		snapshot.Error = s.message
	case *inProgress:
		snapshot.Difficulty = s.difficulty
		snapshot.Questions = slices.Clone(s.questions)
		snapshot.Answers = slices.Clone(s.answers)
		snapshot.Current = s.current
		snapshot.Score = Score(s.answers)
		if s.countdown != nil || (c.timer.Enabled() && s.answers[s.current].TimedOut()) {
			timeLeft := s.timeLeft
			snapshot.TimeLeft = &timeLeft
		}
		if c.saved != nil {
			snapshot.SavedCurrent = c.saved.IsSaved(savedquestion.QuestionID(c.topic.ID, s.current, s.questions[s.current].Question))
		}
	case finished:
		snapshot.Difficulty = s.difficulty
		snapshot.Questions = slices.Clone(s.questions)
		snapshot.Answers = slices.Clone(s.answers)
		snapshot.Current = len(s.questions) - 1
		snapshot.Score = s.score
		result := s.result
		snapshot.Result = &result
	}
	return snapshot
}

// EventKind tells observers why a snapshot was published.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventTimerTicked
	EventTimedOut
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventTimerTicked:
		return "timer_ticked"
	case EventTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}
