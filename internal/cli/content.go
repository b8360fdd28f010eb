package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/examprep/examprep/internal/diagram"
	"github.com/examprep/examprep/internal/render"
)

// writeContent prints the markdown blocks of content formatted and its diagram blocks as source.
func (cli *InteractiveCLI) writeContent(content string) error {
	writer := render.NewTerminalWriter(cli.stdoutWriter)
	diagrams := 0
	for _, block := range render.Split(content) {
		switch block.Kind {
		case render.KindMarkdown:
			if err := writer.WriteMarkdown(block.Value); err != nil {
				return fmt.Errorf("writer.WriteMarkdown() > %w", err)
			}
		case render.KindDiagram:
			diagrams++
			cli.println(cli.italic.Sprintf("[Diagram %d]", diagrams))
			cli.println(cli.faint.Sprint(indent(block.Value, "    ")))
			cli.println()
		}
	}
	return nil
}

// reportDiagrams saves rendered diagrams as SVG files and prints where they went.
func (cli *InteractiveCLI) reportDiagrams(topicID string, snapshots []diagram.Snapshot) {
	for i, snapshot := range snapshots {
		n := i + 1
		switch snapshot.State {
		case diagram.StateRendered:
			path, err := cli.saveDiagram(topicID, n, snapshot.SVG)
			if err != nil {
				cli.println(cli.red.Sprintf("Diagram %d could not be saved: %v", n, err))
				continue
			}
			cli.printf("Diagram %d rendered: %s\n", n, path)
		case diagram.StateFailed:
			cli.println(cli.red.Sprintf("Diagram %d could not be rendered: %s", n, snapshot.Error))
		}
	}
}

func (cli *InteractiveCLI) saveDiagram(topicID string, n int, svg string) (string, error) {
	dir := filepath.Join(cli.services.Config.Outputs.Directory, "diagrams")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}
	path := filepath.Join(dir, topicID+"-"+strconv.Itoa(n)+".svg")
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return path, nil
}

// renderDiagrams renders every controller with the configured concurrency.
func (cli *InteractiveCLI) renderDiagrams(ctx context.Context, topicID string, controllers []*diagram.Controller) {
	if len(controllers) == 0 {
		return
	}
	snapshots := diagram.RenderAll(ctx, controllers, cli.services.Config.Diagram.Concurrency)
	cli.reportDiagrams(topicID, snapshots)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// firstLine returns the first non-empty line of text.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
