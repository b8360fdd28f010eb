package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/savedquestion"
)

func (cli *InteractiveCLI) WriteHistory(results []history.QuizResult) {
	if len(results) == 0 {
		cli.println("You haven't completed any quizzes yet.")
		return
	}
	for _, result := range results {
		cli.printf("%s  %-4s  %-6s  %d/%d  %s\n",
			result.CompletedAt().In(cli.location).Format("2006-01-02 15:04"),
			cli.bold.Sprintf("%d%%", result.Percentage()),
			result.Difficulty,
			result.Score,
			result.TotalQuestions,
			result.TopicTitle,
		)
	}
}

func (cli *InteractiveCLI) WriteSavedQuestions(questions []savedquestion.SavedQuestion) {
	if len(questions) == 0 {
		cli.println("You haven't saved any questions yet.")
		return
	}
	for i, q := range questions {
		if i > 0 {
			cli.println()
		}
		cli.println(cli.faint.Sprint(q.TopicTitle + "  " + q.ID))
		if err := cli.writeContent(q.Question); err != nil {
			cli.println(q.Question)
		}
		for j, option := range q.Options {
			line := fmt.Sprintf("  %s. %s", savedquestion.OptionLabel(j), option)
			if q.IsCorrect(j) {
				line = cli.green.Sprint(line)
			}
			cli.println(line)
		}
		if q.Explanation != "" {
			cli.println(cli.italic.Sprint("Explanation: " + q.Explanation))
		}
	}
}

// WriteTopicTree prints the catalog with bookmarked topics starred.
func (cli *InteractiveCLI) WriteTopicTree(topics []catalog.Topic, isBookmarked func(id string) bool) {
	var walk func(level []catalog.Topic, depth int)
	walk = func(level []catalog.Topic, depth int) {
		for _, topic := range level {
			title := topic.Title
			if depth == 0 {
				title = cli.bold.Sprint(title)
			}
			line := strings.Repeat("  ", depth) + title + " " + cli.faint.Sprint("("+topic.ID+")")
			if isBookmarked != nil && isBookmarked(topic.ID) {
				line += " *"
			}
			cli.println(line)
			walk(topic.SubTopics, depth+1)
		}
	}
	walk(topics, 0)
}

// ClearHistory deletes the history after the user confirms.
func (cli *InteractiveCLI) ClearHistory(ctx context.Context, confirmed bool) error {
	if !confirmed {
		ok, err := cli.Confirm(ctx, history.ClearConfirmation)
		if err != nil || !ok {
			return err
		}
	}
	if err := cli.services.History.Clear(ctx); err != nil {
		return fmt.Errorf("history.Clear() > %w", err)
	}
	cli.println("Quiz history cleared.")
	return nil
}

// ClearSavedQuestions removes every saved question after the user confirms.
func (cli *InteractiveCLI) ClearSavedQuestions(ctx context.Context, confirmed bool) error {
	if !confirmed {
		ok, err := cli.Confirm(ctx, savedquestion.ClearConfirmation)
		if err != nil || !ok {
			return err
		}
	}
	if err := cli.services.Saved.Clear(ctx); err != nil {
		return fmt.Errorf("saved.Clear() > %w", err)
	}
	cli.println(savedquestion.ClearedMessage)
	return nil
}

// RemoveSavedQuestion unsaves the question with id.
func (cli *InteractiveCLI) RemoveSavedQuestion(ctx context.Context, id string) error {
	if !cli.services.Saved.IsSaved(id) {
		return fmt.Errorf("no saved question with id %q", id)
	}
	if err := cli.services.Saved.Unsave(ctx, id); err != nil {
		return fmt.Errorf("saved.Unsave() > %w", err)
	}
	cli.println(savedquestion.RemovedMessage)
	return nil
}
