package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/render"
	"github.com/examprep/examprep/internal/studyguide"
)

type blockView struct {
	Kind render.BlockKind `json:"kind"`
	// HTML is set for markdown blocks, Source for diagram blocks.
	HTML   string `json:"html,omitempty"`
	Source string `json:"source,omitempty"`
}

type studyResponse struct {
	studyguide.Snapshot
	Blocks []blockView `json:"blocks"`
}

func newStudyResponse(snapshot studyguide.Snapshot) studyResponse {
	blocks := make([]blockView, 0)
	for _, block := range render.Split(snapshot.Content) {
		switch block.Kind {
		case render.KindMarkdown:
			blocks = append(blocks, blockView{Kind: block.Kind, HTML: render.MarkdownHTML(block.Value)})
		case render.KindDiagram:
			blocks = append(blocks, blockView{Kind: block.Kind, Source: block.Value})
		}
	}
	return studyResponse{Snapshot: snapshot, Blocks: blocks}
}

// studyController returns the controller of topic, opening it from the cache on first use.
func (s *Server) studyController(c *gin.Context, topic catalog.Topic) *studyguide.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	controller, ok := s.studies[topic.ID]
	if !ok {
		controller = s.services.NewStudyController()
		controller.Open(c.Request.Context(), topic)
		s.studies[topic.ID] = controller
	}
	return controller
}

func (s *Server) getStudyGuide(c *gin.Context) {
	topic, err := s.findLeaf(c.Param("topicId"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, newStudyResponse(s.studyController(c, topic).Snapshot()))
}

// generateStudyGuide blocks until the model answers. force=true keeps the shown guide on failure.
func (s *Server) generateStudyGuide(c *gin.Context) {
	topic, err := s.findLeaf(c.Param("topicId"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	force, _ := strconv.ParseBool(c.Query("force"))

	snapshot, err := s.studyController(c, topic).Generate(c.Request.Context(), force)
	if err != nil {
		// The guide is shown but could not be cached.
		slog.Default().Warn("failed to cache study guide", "topicId", topic.ID, "error", err)
	}
	RespondOK(c, newStudyResponse(snapshot))
}

// exportStudyGuide downloads the cached guide as markdown, or as PDF with format=pdf.
func (s *Server) exportStudyGuide(c *gin.Context) {
	topic, err := s.findLeaf(c.Param("topicId"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	entry, ok := s.services.StudyCache.Load(c.Request.Context(), topic.ID)
	if !ok {
		respondFailure(c, notFound("study guide", topic.ID))
		return
	}

	switch format := c.DefaultQuery("format", "markdown"); format {
	case "markdown", "md":
		var buf bytes.Buffer
		if err := s.services.Exporter.WriteMarkdown(&buf, topic, entry); err != nil {
			respondFailure(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+topic.ID+`.md"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
	case "pdf":
		paths, err := s.services.Exporter.Export(topic, entry, true)
		if err != nil {
			respondFailure(c, err)
			return
		}
		c.FileAttachment(paths[len(paths)-1], topic.ID+".pdf")
	default:
		respondFailure(c, badRequest(errors.New("format must be markdown or pdf, got "+strconv.Quote(format))))
	}
}
