package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/cli"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/quiz"
)

func newTopicsCommand() *cobra.Command {
	var (
		list       bool
		difficulty DifficultyFlag
		timer      TimerFlag
	)
	command := &cobra.Command{
		Use:   "topics",
		Short: "Browse the exam topics, then study one or take a quiz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error {
				if list {
					ui.WriteTopicTree(services.Catalog.Roots(), services.Bookmarks.IsBookmarked)
					return nil
				}
				return ui.Browse(ctx, cli.QuizOptions{
					Difficulty: inference.Difficulty(difficulty),
					Timer:      quiz.TimerDuration(timer),
				})
			})
		},
	}
	flags := command.Flags()
	flags.BoolVar(&list, "list", false, "Print the topic tree and exit")
	addQuizFlags(flags, &difficulty, &timer)
	return command
}

func newStudyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "study [topic id]",
		Short: "Read the study guide of a topic, generating it when it is not cached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error {
				topic, ok, err := resolveTopic(ctx, ui, services.Catalog, args)
				if err != nil || !ok {
					return err
				}
				return ui.Run(ctx, ui.NewStudySession(topic))
			})
		},
	}
}

func newQuizCommand() *cobra.Command {
	var (
		difficulty DifficultyFlag
		timer      TimerFlag
	)
	command := &cobra.Command{
		Use:   "quiz [topic id]",
		Short: "Take a multiple choice quiz on a topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error {
				topic, ok, err := resolveTopic(ctx, ui, services.Catalog, args)
				if err != nil || !ok {
					return err
				}
				return ui.Run(ctx, ui.NewQuizSession(topic, cli.QuizOptions{
					Difficulty: inference.Difficulty(difficulty),
					Timer:      quiz.TimerDuration(timer),
				}))
			})
		},
	}
	addQuizFlags(command.Flags(), &difficulty, &timer)
	return command
}
