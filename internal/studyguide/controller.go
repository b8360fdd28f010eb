package studyguide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
)

type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrNoTopic = errors.New("no topic is open")

// Snapshot is what a study guide view shows. A failed regenerate keeps the previous content.
type Snapshot struct {
	TopicID string             `json:"topicId"`
	State   State              `json:"state"`
	Content string             `json:"content"`
	Sources []inference.Source `json:"sources"`
	// Cached is set once the shown content is stored and can be regenerated.
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generatedAt,omitzero"`
	Error       string    `json:"error,omitempty"`
}

// Controller drives the study guide of one topic at a time.
// Results of a generation that was superseded by Open, Close or a newer Generate are dropped.
type Controller struct {
	client inference.Client
	cache  *Cache
	now    func() time.Time

	mu       sync.Mutex
	topic    *catalog.Topic
	token    uint64
	snapshot Snapshot
}

func NewController(client inference.Client, cache *Cache, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		client: client,
		cache:  cache,
		now:    now,
	}
}

// Open shows topic, from the cache when a guide was generated before.
func (c *Controller) Open(ctx context.Context, topic catalog.Topic) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	c.topic = &topic
	c.snapshot = Snapshot{TopicID: topic.ID, State: StateEmpty}
	if entry, ok := c.cache.Load(ctx, topic.ID); ok {
		c.snapshot.State = StateReady
		c.snapshot.Content = entry.Content
		c.snapshot.Sources = entry.Sources
		c.snapshot.Cached = true
		c.snapshot.GeneratedAt = entry.GeneratedAt()
	}
	return c.snapshot
}

// Generate asks the model for a guide and blocks until it answers.
// Without force the shown content is cleared first; a forced regenerate keeps it until the new guide arrives.
func (c *Controller) Generate(ctx context.Context, force bool) (Snapshot, error) {
	c.mu.Lock()
	if c.topic == nil {
		c.mu.Unlock()
		return Snapshot{}, ErrNoTopic
	}
	c.token++
	token := c.token
	topic := *c.topic
	c.snapshot.State = StateLoading
	c.snapshot.Error = ""
	if !force {
		c.snapshot.Content = ""
		c.snapshot.Sources = nil
		c.snapshot.GeneratedAt = time.Time{}
	}
	c.mu.Unlock()

	guide, err := c.client.GenerateStudyGuide(ctx, topic)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		slog.Default().Debug("discarding superseded study guide result", "topicId", topic.ID)
		return c.snapshot, nil
	}
	if err != nil {
		slog.Default().Error("failed to generate study guide",
			"topicId", topic.ID,
			"error", err)
		c.snapshot.State = StateFailed
		c.snapshot.Error = FailureMessage(err)
		return c.snapshot, nil
	}

	entry, persistErr := c.cache.Save(ctx, topic.ID, guide, c.now())
	c.snapshot.State = StateReady
	c.snapshot.Content = entry.Content
	c.snapshot.Sources = entry.Sources
	c.snapshot.Cached = true
	c.snapshot.GeneratedAt = entry.GeneratedAt()
	return c.snapshot, persistErr
}

// Close drops the open topic and any generation still in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.topic = nil
	c.snapshot = Snapshot{}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Topic returns the open topic.
func (c *Controller) Topic() (catalog.Topic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.topic == nil {
		return catalog.Topic{}, false
	}
	return *c.topic, true
}

// FailureMessage is the text shown when generating a guide fails.
func FailureMessage(err error) string {
	if errors.Is(err, inference.ErrMissingAPIKey) {
		return err.Error()
	}
	return fmt.Sprintf("An error occurred while generating the study guide: %s. Please check your API key and network connection.", err)
}
