package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/quiz"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/storage"
)

// QuizOptions preset the choices of the first quiz. An empty difficulty is asked for.
type QuizOptions struct {
	Difficulty inference.Difficulty
	Timer      quiz.TimerDuration
}

// QuizSession runs quizzes on one topic until the user stops.
type QuizSession struct {
	cli        *InteractiveCLI
	controller *quiz.Controller
	options    QuizOptions
	events     chan quiz.Event
}

func (cli *InteractiveCLI) NewQuizSession(topic catalog.Topic, options QuizOptions, opts ...quiz.Option) *QuizSession {
	s := &QuizSession{
		cli:     cli,
		options: options,
		events:  make(chan quiz.Event, 16),
	}
	opts = append(opts, quiz.WithObserver(s.observe))
	s.controller = cli.services.NewQuizController(topic, opts...)
	return s
}

// observe forwards countdown events. Ticks are dropped when the terminal falls behind.
func (s *QuizSession) observe(event quiz.Event) {
	if event.Kind == quiz.EventStateChanged {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}

func (s *QuizSession) Session(ctx context.Context) error {
	snapshot := s.controller.Snapshot()
	switch snapshot.Phase {
	case quiz.PhaseSelectingDifficulty:
		return s.start(ctx)
	case quiz.PhaseFailed:
		s.cli.println(s.cli.red.Sprint(snapshot.Error))
		return s.again(ctx, "Try again?")
	case quiz.PhaseInProgress:
		return s.play(ctx)
	case quiz.PhaseFinished:
		s.summary(snapshot)
		return s.again(ctx, "Take another quiz?")
	}
	return nil
}

func (s *QuizSession) start(ctx context.Context) error {
	difficulty := s.options.Difficulty
	s.options.Difficulty = ""
	if difficulty == "" {
		answer, err := s.cli.prompt(ctx, "Choose a difficulty (easy, medium, hard):")
		if err != nil {
			return err
		}
		difficulty, err = inference.ParseDifficulty(strings.ToLower(answer))
		if err != nil {
			s.cli.println(err.Error())
			return nil
		}
	}

	if _, err := s.controller.SetTimer(s.options.Timer); err != nil {
		return err
	}
	done, err := s.controller.Start(ctx, difficulty)
	if err != nil {
		return err
	}

	topic := s.controller.Topic()
	s.cli.println()
	s.cli.println(s.cli.bold.Sprintf("%s quiz: %s", strings.ToUpper(string(difficulty[:1]))+string(difficulty[1:]), topic.Title))
	s.cli.println(s.cli.italic.Sprint("Generating questions..."))
	select {
	case <-ctx.Done():
		s.controller.Close()
		return ctx.Err()
	case <-done:
	}
	return nil
}

func (s *QuizSession) again(ctx context.Context, question string) error {
	yes, err := s.cli.Confirm(ctx, question)
	if err != nil {
		return err
	}
	if !yes {
		s.controller.Close()
		return errEnd
	}
	if _, err := s.controller.Reset(); err != nil {
		return err
	}
	return nil
}

// play shows the current question and handles input until the user moves past it.
func (s *QuizSession) play(ctx context.Context) error {
	snapshot := s.controller.Snapshot()
	s.showQuestion(snapshot)
	current := snapshot.Current

	needPrompt := true
	for {
		snapshot = s.controller.Snapshot()
		if needPrompt {
			s.cli.print(s.cli.bold.Sprint(answerPrompt(snapshot)) + " ")
			needPrompt = false
		}

		select {
		case <-ctx.Done():
			s.controller.Close()
			return ctx.Err()
		case event := <-s.events:
			if event.Snapshot.Current != current {
				continue
			}
			switch event.Kind {
			case quiz.EventTimedOut:
				s.cli.println()
				s.showFeedback(event.Snapshot)
				needPrompt = true
			case quiz.EventTimerTicked:
				if left := event.Snapshot.TimeLeft; left != nil && (*left == 10 || *left == 5) {
					s.cli.println()
					s.cli.println(s.cli.faint.Sprintf("%ds left", *left))
					needPrompt = true
				}
			}
		case line, ok := <-s.cli.input():
			if !ok {
				s.controller.Close()
				return errEnd
			}
			done, err := s.handle(ctx, snapshot, line)
			if err != nil || done {
				return err
			}
			needPrompt = true
		}
	}
}

// handle applies one line of input and reports whether the question is done.
func (s *QuizSession) handle(ctx context.Context, snapshot quiz.Snapshot, line string) (bool, error) {
	question, answer, _ := snapshot.CurrentQuestion()
	switch strings.ToLower(line) {
	case "q":
		s.controller.Close()
		return true, errEnd
	case "s":
		saved, err := s.controller.ToggleSave(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotPersisted) {
			s.cli.println(s.cli.red.Sprint("Error: Could not save the question."))
			return false, nil
		}
		if saved {
			s.cli.println(quiz.QuestionSavedMsg)
		} else {
			s.cli.println(quiz.QuestionRemovedMsg)
		}
		if err != nil {
			s.cli.println(s.cli.faint.Sprint("Warning: the change is kept for this session only."))
		}
		return false, nil
	}

	if answer.Answered() {
		if line != "" {
			s.cli.println("Press Enter to continue.")
			return false, nil
		}
		if _, err := s.controller.Next(ctx); err != nil {
			return true, err
		}
		return true, nil
	}

	option, ok := parseOption(line, len(question.Options))
	if !ok {
		s.cli.printf("Please answer with a letter between A and %s.\n", savedquestion.OptionLabel(len(question.Options)-1))
		return false, nil
	}
	answered, err := s.controller.Select(option)
	if err != nil {
		if errors.Is(err, quiz.ErrInvalidTransition) {
			return true, nil
		}
		return true, err
	}
	s.showFeedback(answered)
	return false, nil
}

func (s *QuizSession) showQuestion(snapshot quiz.Snapshot) {
	question, _, ok := snapshot.CurrentQuestion()
	if !ok {
		return
	}
	s.cli.println()
	header := s.cli.bold.Sprintf("Question %d of %d", snapshot.Current+1, snapshot.Total())
	if snapshot.SavedCurrent {
		header += " " + s.cli.faint.Sprint("[saved]")
	}
	if snapshot.TimeLeft != nil {
		header += " " + s.cli.faint.Sprintf("(%ds)", *snapshot.TimeLeft)
	}
	s.cli.println(header)
	s.cli.println()
	if err := s.cli.writeContent(question.Question); err != nil {
		s.cli.println(question.Question)
	}
	for i, option := range question.Options {
		s.cli.printf("  %s. %s\n", savedquestion.OptionLabel(i), option)
	}
	s.cli.println()
}

func (s *QuizSession) showFeedback(snapshot quiz.Snapshot) {
	question, answer, ok := snapshot.CurrentQuestion()
	if !ok || !answer.Answered() {
		return
	}
	correct := savedquestion.OptionLabel(question.CorrectAnswerIndex)
	if question.CorrectAnswerIndex >= 0 && question.CorrectAnswerIndex < len(question.Options) {
		correct += ". " + question.Options[question.CorrectAnswerIndex]
	}
	switch {
	case answer.TimedOut():
		s.cli.println(s.cli.red.Sprint("Time's up!") + " The correct answer is " + correct)
	case *answer.IsCorrect:
		s.cli.println(s.cli.green.Sprint("Correct!"))
	default:
		s.cli.println(s.cli.red.Sprint("Incorrect.") + " The correct answer is " + correct)
	}
	if question.Explanation != "" {
		s.cli.println(s.cli.italic.Sprint(question.Explanation))
	}
	s.cli.println()
}

func (s *QuizSession) summary(snapshot quiz.Snapshot) {
	s.cli.println()
	s.cli.println(s.cli.bold.Sprint("Quiz Complete!"))
	if snapshot.Result != nil {
		s.cli.printf("You scored %d out of %d (%d%%)\n", snapshot.Score, snapshot.Total(), snapshot.Result.Percentage())
	}
	s.cli.println()
	for i, question := range snapshot.Questions {
		answer := snapshot.Answers[i]
		var mark string
		switch {
		case answer.TimedOut():
			mark = s.cli.red.Sprint("timed out")
		case answer.IsCorrect != nil && *answer.IsCorrect:
			mark = s.cli.green.Sprint("correct")
		default:
			mark = s.cli.red.Sprint("incorrect")
		}
		s.cli.printf("  %d. [%s] %s\n", i+1, mark, firstLine(question.Question))
	}
	s.cli.println()
}

func answerPrompt(snapshot quiz.Snapshot) string {
	question, answer, _ := snapshot.CurrentQuestion()
	switch {
	case !answer.Answered():
		return "Your answer (A-" + savedquestion.OptionLabel(len(question.Options)-1) + "), s to save, q to quit:"
	case snapshot.IsLast():
		return "Press Enter to see your results (s to save, q to quit):"
	}
	return "Press Enter for the next question (s to save, q to quit):"
}

// parseOption accepts a letter ("b") or a 1-based number ("2").
func parseOption(line string, options int) (int, bool) {
	line = strings.ToUpper(strings.TrimSpace(line))
	if n, err := strconv.Atoi(line); err == nil {
		return n - 1, n >= 1 && n <= options
	}
	if len(line) != 1 {
		return 0, false
	}
	option := int(line[0] - 'A')
	return option, option >= 0 && option < options
}
