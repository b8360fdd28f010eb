package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/transfer"
)

type importResponse struct {
	Summary transfer.Summary `json:"summary"`
	Message string           `json:"message"`
}

func (s *Server) listHistory(c *gin.Context) {
	s.services.History.Refresh(c.Request.Context())
	RespondOK(c, gin.H{"results": s.services.History.List()})
}

// clearHistory needs confirm=true; without it the confirmation question is returned.
func (s *Server) clearHistory(c *gin.Context) {
	if !confirmed(c) {
		respondFailure(c, errors.Join(errConfirmationRequired, errors.New(history.ClearConfirmation)))
		return
	}
	if err := s.services.History.Clear(c.Request.Context()); err != nil {
		respondFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) importHistory(c *gin.Context) {
	summary, err := s.services.History.Import(c.Request.Context(), c.Request.Body)
	respondImport(c, history.ImportMessages, summary, err)
}

func (s *Server) exportHistory(c *gin.Context) {
	respondExport(c, history.ExportFileName, s.services.History.Export)
}

func (s *Server) listSavedQuestions(c *gin.Context) {
	s.services.Saved.Refresh(c.Request.Context())
	RespondOK(c, gin.H{"questions": s.services.Saved.List()})
}

func (s *Server) clearSavedQuestions(c *gin.Context) {
	if !confirmed(c) {
		respondFailure(c, errors.Join(errConfirmationRequired, errors.New(savedquestion.ClearConfirmation)))
		return
	}
	if err := s.services.Saved.Clear(c.Request.Context()); err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"message": savedquestion.ClearedMessage})
}

func (s *Server) removeSavedQuestion(c *gin.Context) {
	id := c.Param("id")
	s.services.Saved.Refresh(c.Request.Context())
	if !s.services.Saved.IsSaved(id) {
		respondFailure(c, notFound("saved question", id))
		return
	}
	if err := s.services.Saved.Unsave(c.Request.Context(), id); err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"message": savedquestion.RemovedMessage})
}

func (s *Server) importSavedQuestions(c *gin.Context) {
	summary, err := s.services.Saved.Import(c.Request.Context(), c.Request.Body)
	respondImport(c, savedquestion.ImportMessages, summary, err)
}

func (s *Server) exportSavedQuestions(c *gin.Context) {
	respondExport(c, savedquestion.ExportFileName, s.services.Saved.Export)
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

// respondImport reports the import outcome with the same texts the terminal client prints.
func respondImport(c *gin.Context, messages transfer.Messages, summary transfer.Summary, err error) {
	message := transfer.ImportMessage(messages, summary, err)
	if err != nil {
		status, code := classify(err)
		RespondError(c, status, code, errors.New(message))
		return
	}
	RespondOK(c, importResponse{Summary: summary, Message: message})
}

func respondExport(c *gin.Context, filename string, export func(io.Writer) error) {
	var buf bytes.Buffer
	if err := export(&buf); err != nil {
		status, code := classify(err)
		RespondError(c, status, code, errors.New(transfer.ExportMessage(err)))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}
