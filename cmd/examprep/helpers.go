package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/cli"
	"github.com/examprep/examprep/internal/config"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// runInteractive opens the services and runs fn with a terminal bound to the command's streams.
// The services are closed when fn returns or the process is interrupted.
func runInteractive(cmd *cobra.Command, fn func(ctx context.Context, ui *cli.InteractiveCLI, services *bootstrap.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	app := bootstrap.New()
	return app.Run(cmd.Context(), func(ctx context.Context) error {
		services, err := bootstrap.NewServices(ctx, cfg, app)
		if err != nil {
			return fmt.Errorf("bootstrap.NewServices() > %w", err)
		}
		return fn(ctx, cli.NewInteractiveCLI(services, cmd.InOrStdin(), cmd.OutOrStdout()), services)
	})
}

// resolveTopic finds the topic given on the command line, or lets the user pick one.
func resolveTopic(ctx context.Context, ui *cli.InteractiveCLI, topics *catalog.Catalog, args []string) (catalog.Topic, bool, error) {
	if len(args) == 0 {
		return ui.PickTopic(ctx)
	}
	topic, ok := topics.Find(args[0])
	if !ok {
		return catalog.Topic{}, false, fmt.Errorf("unknown topic %q", args[0])
	}
	if !topic.IsLeaf() {
		return catalog.Topic{}, false, fmt.Errorf("topic %q is a category, pick one of its sub topics", args[0])
	}
	return topic, true, nil
}
