package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/cli"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/transfer"
)

// collection is the import and export surface shared by the history and the saved questions.
type collection interface {
	Import(ctx context.Context, r io.Reader) (transfer.Summary, error)
	ExportFile(dir string) (string, error)
}

func newHistoryCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "history",
		Short: "Quiz history commands",
	}

	var yes bool
	clearCommand := &cobra.Command{
		Use:   "clear",
		Short: "Delete the quiz history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, _ *bootstrap.Services) error {
				return ui.ClearHistory(ctx, yes)
			})
		},
	}
	clearCommand.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	command.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List completed quizzes, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInteractive(cmd, func(_ context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error {
					ui.WriteHistory(services.History.List())
					return nil
				})
			},
		},
		clearCommand,
		newImportCommand("Merge quiz results from a JSON file", history.ImportMessages, func(s *bootstrap.Services) collection {
			return s.History
		}),
		newExportCommand("Write the quiz history to "+history.ExportFileName, func(s *bootstrap.Services) collection {
			return s.History
		}),
	)
	return command
}

func newSavedCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "saved",
		Short: "Saved question commands",
	}

	var yes bool
	clearCommand := &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, _ *bootstrap.Services) error {
				return ui.ClearSavedQuestions(ctx, yes)
			})
		},
	}
	clearCommand.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	command.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved questions with their answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInteractive(cmd, func(_ context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error {
					ui.WriteSavedQuestions(services.Saved.List())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <question id>",
			Short: "Remove one saved question",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInteractive(cmd, func(ctx context.Context, ui *cli.InteractiveCLI, _ *bootstrap.Services) error {
					return ui.RemoveSavedQuestion(ctx, args[0])
				})
			},
		},
		clearCommand,
		newImportCommand("Add saved questions from a JSON file", savedquestion.ImportMessages, func(s *bootstrap.Services) collection {
			return s.Saved
		}),
		newExportCommand("Write the saved questions to "+savedquestion.ExportFileName, func(s *bootstrap.Services) collection {
			return s.Saved
		}),
	)
	return command
}

func newImportCommand(short string, messages transfer.Messages, target func(*bootstrap.Services) collection) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("os.Open(%s) > %w", args[0], err)
			}
			defer func() {
				_ = f.Close()
			}()

			return runInteractive(cmd, func(ctx context.Context, _ *cli.InteractiveCLI, services *bootstrap.Services) error {
				summary, err := target(services).Import(ctx, f)
				if _, printErr := fmt.Fprintln(cmd.OutOrStdout(), transfer.ImportMessage(messages, summary, err)); printErr != nil {
					return printErr
				}
				if err != nil {
					return fmt.Errorf("Import(%s) > %w", args[0], err)
				}
				if summary.Rejected > 0 {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries were skipped.\n", summary.Rejected, summary.Total)
				}
				return err
			})
		},
	}
}

func newExportCommand(short string, target func(*bootstrap.Services) collection) *cobra.Command {
	var dir string
	command := &cobra.Command{
		Use:   "export",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, func(_ context.Context, _ *cli.InteractiveCLI, services *bootstrap.Services) error {
				if dir == "" {
					dir = services.Config.Outputs.Directory
				}
				path, err := target(services).ExportFile(dir)
				out := cmd.OutOrStdout()
				if _, printErr := fmt.Fprintln(out, transfer.ExportMessage(err)); printErr != nil {
					return printErr
				}
				if err != nil {
					return fmt.Errorf("ExportFile(%s) > %w", dir, err)
				}
				_, err = fmt.Fprintln(out, path)
				return err
			})
		},
	}
	command.Flags().StringVar(&dir, "dir", "", "Output directory. Defaults to outputs.directory of the config")
	return command
}

func newBookmarksCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "bookmarks",
		Short: "Bookmarked topic commands",
	}
	command.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List bookmarked topics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInteractive(cmd, func(_ context.Context, _ *cli.InteractiveCLI, services *bootstrap.Services) error {
					out := cmd.OutOrStdout()
					ids := services.Bookmarks.List()
					if len(ids) == 0 {
						_, err := fmt.Fprintln(out, "You haven't bookmarked any topics yet.")
						return err
					}
					for _, id := range ids {
						title := "(no longer in the catalog)"
						if topic, ok := services.Catalog.Find(id); ok {
							title = topic.Title
						}
						if _, err := fmt.Fprintf(out, "%s  %s\n", id, title); err != nil {
							return err
						}
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <topic id>",
			Short: "Bookmark a topic, or remove its bookmark",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInteractive(cmd, func(ctx context.Context, _ *cli.InteractiveCLI, services *bootstrap.Services) error {
					topic, ok := services.Catalog.Find(args[0])
					if !ok {
						return fmt.Errorf("unknown topic %q", args[0])
					}
					bookmarked, err := services.Bookmarks.Toggle(ctx, topic.ID)
					if err != nil && !errors.Is(err, storage.ErrNotPersisted) {
						return fmt.Errorf("bookmarks.Toggle() > %w", err)
					}
					message := "Removed the bookmark of " + topic.Title + "."
					if bookmarked {
						message = "Bookmarked " + topic.Title + "."
					}
					_, printErr := fmt.Fprintln(cmd.OutOrStdout(), message)
					if err != nil {
						return fmt.Errorf("bookmarks.Toggle() > %w", err)
					}
					return printErr
				})
			},
		},
	)
	return command
}
