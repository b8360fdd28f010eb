package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/diagram"
	"github.com/examprep/examprep/internal/render"
	"github.com/examprep/examprep/internal/studyguide"
)

// StudySession shows the study guide of one topic, generating it when it is not cached.
type StudySession struct {
	cli        *InteractiveCLI
	topic      catalog.Topic
	controller *studyguide.Controller
	diagrams   []*diagram.Controller
	opened     bool
}

func (cli *InteractiveCLI) NewStudySession(topic catalog.Topic) *StudySession {
	return &StudySession{
		cli:        cli,
		topic:      topic,
		controller: cli.services.NewStudyController(),
	}
}

func (s *StudySession) Session(ctx context.Context) error {
	if !s.opened {
		s.opened = true
		snapshot := s.controller.Open(ctx, s.topic)
		if snapshot.State == studyguide.StateEmpty {
			snapshot = s.generate(ctx, false)
		}
		if err := s.show(ctx, snapshot); err != nil {
			return err
		}
	}

	command, err := s.cli.prompt(ctx, "[r]egenerate, [d] retry diagrams, [e]xport markdown, [p]df export, [q]uit:")
	if err != nil {
		return err
	}
	switch strings.ToLower(command) {
	case "r":
		return s.show(ctx, s.generate(ctx, true))
	case "d":
		s.retryDiagrams(ctx)
	case "e":
		s.export(ctx, false)
	case "p":
		s.export(ctx, true)
	case "q":
		s.controller.Close()
		return errEnd
	default:
		s.cli.println("Unknown command.")
	}
	return nil
}

func (s *StudySession) generate(ctx context.Context, force bool) studyguide.Snapshot {
	s.cli.println(s.cli.italic.Sprint("Generating study guide..."))
	snapshot, err := s.controller.Generate(ctx, force)
	if err != nil {
		slog.Default().Warn("failed to cache study guide", "topicId", s.topic.ID, "error", err)
		s.cli.println(s.cli.red.Sprint("Warning: the study guide could not be saved and will be generated again next time."))
	}
	return snapshot
}

func (s *StudySession) show(ctx context.Context, snapshot studyguide.Snapshot) error {
	s.cli.println()
	s.cli.println(s.cli.bold.Sprint(s.topic.Title))
	s.cli.println(s.cli.italic.Sprint(s.topic.Description))
	s.cli.println()

	if snapshot.State == studyguide.StateFailed {
		s.cli.println(s.cli.red.Sprint(snapshot.Error))
		s.cli.println()
	}
	if snapshot.Content == "" {
		return nil
	}

	if err := s.cli.writeContent(snapshot.Content); err != nil {
		return err
	}
	if len(snapshot.Sources) > 0 {
		s.cli.println(s.cli.bold.Sprint("Sources"))
		for _, source := range snapshot.Sources {
			title := source.Title
			if title == "" {
				title = source.URI
			}
			s.cli.printf("  - %s (%s)\n", title, source.URI)
		}
		s.cli.println()
	}
	if !snapshot.GeneratedAt.IsZero() {
		s.cli.println(s.cli.faint.Sprintf("Generated at %s", snapshot.GeneratedAt.In(s.cli.location).Format("2006-01-02 15:04")))
	}

	s.diagrams = s.cli.services.NewDiagramControllers(render.DiagramSources(snapshot.Content))
	s.cli.renderDiagrams(ctx, s.topic.ID, s.diagrams)
	return nil
}

func (s *StudySession) retryDiagrams(ctx context.Context) {
	retried := false
	snapshots := make([]diagram.Snapshot, len(s.diagrams))
	for i, controller := range s.diagrams {
		snapshot, err := controller.Retry(ctx)
		if err != nil {
			// Only failed diagrams can be retried; the others are reported as they are.
			snapshot = controller.Snapshot()
		} else {
			retried = true
		}
		snapshots[i] = snapshot
	}
	if !retried {
		s.cli.println("There are no failed diagrams to retry.")
		return
	}
	s.cli.reportDiagrams(s.topic.ID, snapshots)
}

func (s *StudySession) export(ctx context.Context, withPDF bool) {
	entry, ok := s.cli.services.StudyCache.Load(ctx, s.topic.ID)
	if !ok {
		s.cli.println("There is no study guide to export.")
		return
	}
	paths, err := s.cli.services.Exporter.Export(s.topic, entry, withPDF)
	if err != nil {
		slog.Default().Error("failed to export study guide", "topicId", s.topic.ID, "error", err)
		s.cli.println(s.cli.red.Sprint("Error: Could not export the study guide."))
		return
	}
	for _, path := range paths {
		s.cli.printf("Exported %s\n", path)
	}
}
