package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/examprep/examprep/internal/bookmark"
	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/config"
	"github.com/examprep/examprep/internal/diagram"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/inference/gemini"
	"github.com/examprep/examprep/internal/inference/openai"
	"github.com/examprep/examprep/internal/quiz"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/studyguide"
)

// Services holds everything a command or the server needs, built from one configuration.
type Services struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Store      storage.Store
	History    *history.Store
	Saved      *savedquestion.Store
	Bookmarks  *bookmark.Store
	Inference  inference.Client
	StudyCache *studyguide.Cache
	Exporter   *studyguide.Exporter
	Diagrams   diagram.Renderer
}

// NewServices opens the storage backend and loads every collection from it.
// The storage connection and the inference client are closed by app's shutdown hooks.
func NewServices(ctx context.Context, cfg *config.Config, app *App) (*Services, error) {
	store, closeStore, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage.Open() > %w", err)
	}
	app.AddShutdownHook(func(context.Context) error {
		if err := closeStore(); err != nil {
			return fmt.Errorf("closeStore() > %w", err)
		}
		return nil
	})

	client := NewInferenceClient(cfg.Inference, cfg.Quiz.QuestionCount)
	if closer, ok := client.(io.Closer); ok {
		app.AddShutdownHook(func(context.Context) error {
			if err := closer.Close(); err != nil {
				return fmt.Errorf("client.Close() > %w", err)
			}
			return nil
		})
	}

	services := &Services{
		Config:     cfg,
		Catalog:    catalog.Default(),
		Store:      store,
		History:    history.NewStore(ctx, store),
		Saved:      savedquestion.NewStore(ctx, store),
		Bookmarks:  bookmark.NewStore(ctx, store),
		Inference:  client,
		StudyCache: studyguide.NewCache(store),
		Exporter:   studyguide.NewExporter(cfg.Templates.StudyGuideTemplate, cfg.Outputs.Directory),
		Diagrams:   NewDiagramRenderer(cfg.Diagram),
	}
	slog.Default().Debug("services ready",
		"storage", cfg.Storage.Backend,
		"provider", cfg.Inference.Provider,
		"topics", len(services.Catalog.Leaves()))
	return services, nil
}

// NewInferenceClient returns the client of the configured provider, or one that reports
// the missing API key on every request.
func NewInferenceClient(cfg config.InferenceConfig, questionCount int) inference.Client {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		slog.Default().Warn("inference API key is not set", "provider", cfg.Provider, "env", cfg.APIKeyEnv())
		return inference.Unconfigured{KeyEnv: cfg.APIKeyEnv()}
	}
	if cfg.Provider == "openai" {
		client := openai.NewClient(apiKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.RetryAttempts, questionCount)
		slog.Default().Info("using inference provider", "provider", cfg.Provider, "model", client.GetModel())
		return client
	}
	client := gemini.NewClient(apiKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.RetryAttempts, questionCount)
	slog.Default().Info("using inference provider", "provider", cfg.Provider, "model", client.GetModel())
	return client
}

// NewDiagramRenderer returns the Kroki renderer, or nil when no Kroki URL is configured.
// Controllers treat a nil renderer as unavailable.
func NewDiagramRenderer(cfg config.DiagramConfig) diagram.Renderer {
	if cfg.KrokiURL == "" {
		return nil
	}
	return diagram.NewKrokiRenderer(cfg.KrokiURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
}

// NewStudyController returns a study guide controller backed by the shared cache.
func (s *Services) NewStudyController() *studyguide.Controller {
	return studyguide.NewController(s.Inference, s.StudyCache, time.Now)
}

// NewQuizController starts a quiz session for topic that records into the history and saved questions.
func (s *Services) NewQuizController(topic catalog.Topic, opts ...quiz.Option) *quiz.Controller {
	return quiz.NewController(topic, s.Inference, s.History, s.Saved, opts...)
}

// NewDiagramControllers prepares one controller per diagram source.
func (s *Services) NewDiagramControllers(sources []string) []*diagram.Controller {
	return diagram.NewControllers(s.Diagrams, sources)
}
