package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/quiz"
	"github.com/examprep/examprep/internal/storage"
)

type quizResponse struct {
	ID string `json:"id"`
	quiz.Snapshot
}

type createQuizRequest struct {
	TopicID string `json:"topicId" binding:"required"`
	// Timer is "none", "30s", "60s" or "90s".
	Timer string `json:"timer"`
}

func (s *Server) createQuiz(c *gin.Context) {
	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	topic, err := s.findLeaf(req.TopicID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	timer, err := quiz.ParseTimerDuration(req.Timer)
	if err != nil {
		respondFailure(c, badRequest(err))
		return
	}

	controller := s.services.NewQuizController(topic)
	snapshot, err := controller.SetTimer(timer)
	if err != nil {
		respondFailure(c, err)
		return
	}
	id := uuid.NewString()
	var evicted []*quiz.Controller
	s.mu.Lock()
	s.quizzes[id] = controller
	s.quizOrder = append(s.quizOrder, id)
	for len(s.quizOrder) > maxQuizzes {
		oldest := s.quizOrder[0]
		s.quizOrder = s.quizOrder[1:]
		evicted = append(evicted, s.quizzes[oldest])
		delete(s.quizzes, oldest)
	}
	s.mu.Unlock()
	for _, old := range evicted {
		old.Close()
	}

	c.JSON(http.StatusCreated, quizResponse{ID: id, Snapshot: snapshot})
}

func (s *Server) quizController(c *gin.Context) (string, *quiz.Controller, bool) {
	id := c.Param("id")
	s.mu.Lock()
	controller, ok := s.quizzes[id]
	s.mu.Unlock()
	if !ok {
		respondFailure(c, notFound("quiz", id))
		return "", nil, false
	}
	return id, controller, true
}

func (s *Server) getQuiz(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	RespondOK(c, quizResponse{ID: id, Snapshot: controller.Snapshot()})
}

type startQuizRequest struct {
	Difficulty string `json:"difficulty" binding:"required"`
}

// startQuiz answers at once with the loading state; clients poll getQuiz for the questions.
func (s *Server) startQuiz(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	var req startQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	difficulty, err := inference.ParseDifficulty(req.Difficulty)
	if err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	if _, err := controller.Start(c.Request.Context(), difficulty); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusAccepted, quizResponse{ID: id, Snapshot: controller.Snapshot()})
}

type answerRequest struct {
	Option *int `json:"option" binding:"required"`
}

func (s *Server) answerQuiz(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	snapshot, err := controller.Select(*req.Option)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, quizResponse{ID: id, Snapshot: snapshot})
}

func (s *Server) nextQuestion(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	snapshot, err := controller.Next(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, quizResponse{ID: id, Snapshot: snapshot})
}

func (s *Server) toggleSaveQuestion(c *gin.Context) {
	_, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	saved, err := controller.ToggleSave(c.Request.Context())
	if err != nil && !errors.Is(err, storage.ErrNotPersisted) {
		respondFailure(c, err)
		return
	}
	message := quiz.QuestionRemovedMsg
	if saved {
		message = quiz.QuestionSavedMsg
	}
	RespondOK(c, gin.H{
		"saved":     saved,
		"message":   message,
		"persisted": err == nil,
	})
}

func (s *Server) resetQuiz(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	snapshot, err := controller.Reset()
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, quizResponse{ID: id, Snapshot: snapshot})
}

func (s *Server) deleteQuiz(c *gin.Context) {
	id, controller, ok := s.quizController(c)
	if !ok {
		return
	}
	controller.Close()
	s.mu.Lock()
	delete(s.quizzes, id)
	s.quizOrder = without(s.quizOrder, id)
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}
