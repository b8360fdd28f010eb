package assets

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/study-guide.md.go.tmpl
var fallbackStudyGuideTemplate string

const studyGuideTemplateName = "study-guide.md.go.tmpl"

// StudyGuideTemplate is the data a study guide Markdown template is executed with
type StudyGuideTemplate struct {
	Title               string
	Description         string
	OfficialDescription string
	GeneratedAt         time.Time
	Content             string
	Sources             []StudyGuideSource
}

type StudyGuideSource struct {
	URI   string
	Title string
}

func ParseStudyGuideTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, studyGuideTemplateName, fallbackStudyGuideTemplate)
}

func WriteStudyGuide(output io.Writer, templatePath string, templateData StudyGuideTemplate) error {
	tmpl, err := ParseStudyGuideTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseStudyGuideTemplate() > %w", err)
	}
	if err := tmpl.Execute(output, templateData); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func parseTemplateWithFallback(templatePath, fallbackName, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}

	return tmpl, nil
}
