package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/diagram"
)

type renderDiagramsRequest struct {
	Sources []string `json:"sources" binding:"required,min=1"`
}

// renderDiagrams renders every source concurrently. Each diagram keeps its scope id for retries.
func (s *Server) renderDiagrams(c *gin.Context) {
	var req renderDiagramsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, badRequest(err))
		return
	}

	controllers := s.services.NewDiagramControllers(req.Sources)
	s.mu.Lock()
	for _, controller := range controllers {
		s.diagrams[controller.ScopeID()] = controller
		s.diagramOrder = append(s.diagramOrder, controller.ScopeID())
	}
	for len(s.diagramOrder) > maxDiagrams {
		delete(s.diagrams, s.diagramOrder[0])
		s.diagramOrder = s.diagramOrder[1:]
	}
	s.mu.Unlock()

	snapshots := diagram.RenderAll(c.Request.Context(), controllers, s.services.Config.Diagram.Concurrency)
	RespondOK(c, gin.H{"diagrams": snapshots})
}

func (s *Server) diagramController(c *gin.Context) (*diagram.Controller, bool) {
	scopeID := c.Param("scopeId")
	s.mu.Lock()
	controller, ok := s.diagrams[scopeID]
	s.mu.Unlock()
	if !ok {
		respondFailure(c, notFound("diagram", scopeID))
		return nil, false
	}
	return controller, true
}

func (s *Server) getDiagram(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	RespondOK(c, controller.Snapshot())
}

func (s *Server) retryDiagram(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	snapshot, err := controller.Retry(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func (s *Server) deleteDiagram(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.diagrams, controller.ScopeID())
	s.diagramOrder = without(s.diagramOrder, controller.ScopeID())
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// openZoom shows a rendered diagram enlarged; any other state answers not_rendered.
func (s *Server) openZoom(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	if err := controller.OpenZoom(); err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, controller.Snapshot())
}

func (s *Server) closeZoom(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	controller.CloseZoom()
	RespondOK(c, controller.Snapshot())
}

type keyRequest struct {
	Key string `json:"key" binding:"required"`
}

// diagramKey forwards a key press from the zoom view. Escape closes it.
func (s *Server) diagramKey(c *gin.Context) {
	controller, ok := s.diagramController(c)
	if !ok {
		return
	}
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	consumed := controller.HandleKey(req.Key)
	RespondOK(c, gin.H{
		"consumed": consumed,
		"diagram":  controller.Snapshot(),
	})
}
