package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/storage"
)

type topicView struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	IconName            string `json:"iconName"`
	OfficialDescription string `json:"officialDescription,omitempty"`
	IsLeaf              bool   `json:"isLeaf"`
	Bookmarked          bool   `json:"bookmarked"`
}

func (s *Server) topicView(topic catalog.Topic) topicView {
	return topicView{
		ID:                  topic.ID,
		Title:               topic.Title,
		Description:         topic.Description,
		IconName:            topic.IconName,
		OfficialDescription: topic.OfficialDescription,
		IsLeaf:              topic.IsLeaf(),
		Bookmarked:          s.services.Bookmarks.IsBookmarked(topic.ID),
	}
}

func (s *Server) topicViews(topics []catalog.Topic) []topicView {
	views := make([]topicView, 0, len(topics))
	for _, topic := range topics {
		views = append(views, s.topicView(topic))
	}
	return views
}

type topicsResponse struct {
	Breadcrumb []topicView `json:"breadcrumb"`
	Topics     []topicView `json:"topics"`
}

// listTopics returns one level of the tree. path is a comma separated list of category ids,
// q filters by text and filter=bookmarked keeps bookmarked topics only.
func (s *Server) listTopics(c *gin.Context) {
	var path []string
	if raw := c.Query("path"); raw != "" {
		path = strings.Split(raw, ",")
	}
	mode, err := catalog.ParseFilterMode(c.Query("filter"))
	if err != nil {
		respondFailure(c, badRequest(err))
		return
	}

	level, breadcrumb, err := s.services.Catalog.Children(path)
	if err != nil {
		respondFailure(c, badRequest(err))
		return
	}
	s.services.Bookmarks.Refresh(c.Request.Context())
	topics := catalog.Filter(level, c.Query("q"), mode, s.services.Bookmarks.IsBookmarked)
	RespondOK(c, topicsResponse{
		Breadcrumb: s.topicViews(breadcrumb),
		Topics:     s.topicViews(topics),
	})
}

func (s *Server) getTopic(c *gin.Context) {
	topic, err := s.findTopic(c.Param("id"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, s.topicView(topic))
}

func (s *Server) findTopic(id string) (catalog.Topic, error) {
	topic, ok := s.services.Catalog.Find(id)
	if !ok {
		return catalog.Topic{}, notFound("topic", id)
	}
	return topic, nil
}

// findLeaf looks up a topic that can be studied or quizzed.
func (s *Server) findLeaf(id string) (catalog.Topic, error) {
	topic, err := s.findTopic(id)
	if err != nil {
		return catalog.Topic{}, err
	}
	if !topic.IsLeaf() {
		return catalog.Topic{}, badRequest(errors.New("topic " + id + " is a category"))
	}
	return topic, nil
}

func (s *Server) listBookmarks(c *gin.Context) {
	s.services.Bookmarks.Refresh(c.Request.Context())
	RespondOK(c, gin.H{"topicIds": s.services.Bookmarks.List()})
}

func (s *Server) toggleBookmark(c *gin.Context) {
	topic, err := s.findTopic(c.Param("id"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	bookmarked, err := s.services.Bookmarks.Toggle(c.Request.Context(), topic.ID)
	if err != nil && !errors.Is(err, storage.ErrNotPersisted) {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{
		"topicId":    topic.ID,
		"bookmarked": bookmarked,
		"persisted":  err == nil,
	})
}
