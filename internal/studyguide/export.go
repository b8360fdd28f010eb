package studyguide

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/examprep/examprep/internal/assets"
	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/pdf"
)

// Exporter writes study guides as Markdown, optionally converted to PDF.
type Exporter struct {
	templatePath string
	directory    string
}

// NewExporter uses the Markdown template at templatePath, or the embedded one when it is empty or unusable.
func NewExporter(templatePath, directory string) *Exporter {
	return &Exporter{
		templatePath: templatePath,
		directory:    directory,
	}
}

func (e *Exporter) WriteMarkdown(w io.Writer, topic catalog.Topic, entry Entry) error {
	sources := make([]assets.StudyGuideSource, len(entry.Sources))
	for i, source := range entry.Sources {
		sources[i] = assets.StudyGuideSource{URI: source.URI, Title: source.Title}
	}
	data := assets.StudyGuideTemplate{
		Title:               topic.Title,
		Description:         topic.Description,
		OfficialDescription: topic.OfficialDescription,
		GeneratedAt:         entry.GeneratedAt(),
		Content:             entry.Content,
		Sources:             sources,
	}
	if err := assets.WriteStudyGuide(w, e.templatePath, data); err != nil {
		return fmt.Errorf("assets.WriteStudyGuide(%s) > %w", topic.ID, err)
	}
	return nil
}

// Export writes <directory>/<topic id>.md and, when withPDF is set, the PDF next to it.
// It returns the paths written.
func (e *Exporter) Export(topic catalog.Topic, entry Entry, withPDF bool) ([]string, error) {
	if err := os.MkdirAll(e.directory, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", e.directory, err)
	}

	var buf bytes.Buffer
	if err := e.WriteMarkdown(&buf, topic, entry); err != nil {
		return nil, err
	}
	markdownPath := filepath.Join(e.directory, topic.ID+".md")
	if err := os.WriteFile(markdownPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}
	paths := []string{markdownPath}
	if !withPDF {
		return paths, nil
	}

	pdfPath, err := pdf.ConvertMarkdownToPDF(markdownPath)
	if err != nil {
		return paths, fmt.Errorf("pdf.ConvertMarkdownToPDF(%s) > %w", markdownPath, err)
	}
	return append(paths, pdfPath), nil
}
