package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TerminalWriter prints formatted documents with ANSI styling.
type TerminalWriter struct {
	out      io.Writer
	heading2 *color.Color
	heading3 *color.Color
	bold     *color.Color
}

func NewTerminalWriter(out io.Writer) *TerminalWriter {
	return &TerminalWriter{
		out:      out,
		heading2: color.New(color.Bold, color.FgCyan, color.Underline),
		heading3: color.New(color.Bold, color.FgCyan),
		bold:     color.New(color.Bold),
	}
}

func (w *TerminalWriter) WriteDocument(doc Document) error {
	for _, node := range doc.Nodes {
		var line string
		switch node.Kind {
		case NodeHeading2:
			line = "\n" + w.heading2.Sprint(plain(node.Spans)) + "\n"
		case NodeHeading3:
			line = "\n" + w.heading3.Sprint(plain(node.Spans)) + "\n"
		case NodeList:
			items := make([]string, 0, len(node.Items))
			for _, item := range node.Items {
				items = append(items, "  • "+w.spans(item))
			}
			line = strings.Join(items, "\n") + "\n"
		case NodeParagraph:
			line = w.spans(node.Spans) + "\n"
		}
		if _, err := fmt.Fprintln(w.out, line); err != nil {
			return fmt.Errorf("fmt.Fprintln() > %w", err)
		}
	}
	return nil
}

// WriteMarkdown formats and prints one markdown block.
func (w *TerminalWriter) WriteMarkdown(markdown string) error {
	return w.WriteDocument(Format(markdown))
}

func (w *TerminalWriter) spans(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		if span.Bold {
			b.WriteString(w.bold.Sprint(span.Text))
			continue
		}
		b.WriteString(span.Text)
	}
	return b.String()
}

func plain(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}
