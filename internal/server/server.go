// Package server exposes topics, study guides, quizzes and the user's collections as a JSON API.
package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/diagram"
	"github.com/examprep/examprep/internal/quiz"
	"github.com/examprep/examprep/internal/studyguide"
)

const (
	// maxDiagrams bounds the diagram controllers kept for retries; the oldest are dropped first.
	maxDiagrams = 512
	// maxQuizzes bounds the open quiz sessions; the oldest is closed when a new one exceeds it.
	maxQuizzes = 256
)

// Server holds the per-client state of the API: quiz sessions, study guide views and diagrams.
type Server struct {
	services *bootstrap.Services

	mu           sync.Mutex
	quizzes      map[string]*quiz.Controller
	quizOrder    []string
	studies      map[string]*studyguide.Controller
	diagrams     map[string]*diagram.Controller
	diagramOrder []string
}

func New(services *bootstrap.Services) *Server {
	return &Server{
		services: services,
		quizzes:  make(map[string]*quiz.Controller),
		studies:  make(map[string]*studyguide.Controller),
		diagrams: make(map[string]*diagram.Controller),
	}
}

// Router builds the gin engine. CORS allows the configured origins, or any origin when none is configured.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if origins := s.services.Config.Server.CORS.AllowedOrigins; len(origins) > 0 {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		RespondOK(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/topics", s.listTopics)
		api.GET("/topics/:id", s.getTopic)

		api.GET("/bookmarks", s.listBookmarks)
		api.POST("/bookmarks/:id/toggle", s.toggleBookmark)

		api.GET("/study/:topicId", s.getStudyGuide)
		api.POST("/study/:topicId/generate", s.generateStudyGuide)
		api.GET("/study/:topicId/export", s.exportStudyGuide)

		api.POST("/quizzes", s.createQuiz)
		api.GET("/quizzes/:id", s.getQuiz)
		api.POST("/quizzes/:id/start", s.startQuiz)
		api.POST("/quizzes/:id/answer", s.answerQuiz)
		api.POST("/quizzes/:id/next", s.nextQuestion)
		api.POST("/quizzes/:id/save", s.toggleSaveQuestion)
		api.POST("/quizzes/:id/reset", s.resetQuiz)
		api.DELETE("/quizzes/:id", s.deleteQuiz)

		api.GET("/history", s.listHistory)
		api.DELETE("/history", s.clearHistory)
		api.POST("/history/import", s.importHistory)
		api.GET("/history/export", s.exportHistory)

		api.GET("/saved", s.listSavedQuestions)
		api.DELETE("/saved", s.clearSavedQuestions)
		api.DELETE("/saved/:id", s.removeSavedQuestion)
		api.POST("/saved/import", s.importSavedQuestions)
		api.GET("/saved/export", s.exportSavedQuestions)

		api.POST("/diagrams", s.renderDiagrams)
		api.GET("/diagrams/:scopeId", s.getDiagram)
		api.POST("/diagrams/:scopeId/retry", s.retryDiagram)
		api.POST("/diagrams/:scopeId/zoom", s.openZoom)
		api.DELETE("/diagrams/:scopeId/zoom", s.closeZoom)
		api.POST("/diagrams/:scopeId/key", s.diagramKey)
		api.DELETE("/diagrams/:scopeId", s.deleteDiagram)
	}
	return r
}

// Close abandons every quiz session and study guide generation.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, controller := range s.quizzes {
		controller.Close()
		delete(s.quizzes, id)
	}
	s.quizOrder = nil
	for id, controller := range s.studies {
		controller.Close()
		delete(s.studies, id)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Default().Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// without returns order minus id, keeping the rest in place.
func without(order []string, id string) []string {
	for i, existing := range order {
		if existing == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}
