package diagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	StateLoading State = iota
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotFailed   = errors.New("only a failed diagram can be retried")
	ErrNotRendered = errors.New("only a rendered diagram can be zoomed")
)

// Snapshot is a copy of a controller's state for display.
type Snapshot struct {
	ScopeID  string `json:"scopeId"`
	State    State  `json:"state"`
	Source   string `json:"source"`
	SVG      string `json:"svg,omitempty"`
	Error    string `json:"error,omitempty"`
	Retries  int    `json:"retries"`
	ZoomOpen bool   `json:"zoomOpen"`
}

// Controller runs the render lifecycle of one diagram block: it starts in Loading,
// ends in Rendered or Failed, and only a manual Retry leaves Failed.
type Controller struct {
	renderer Renderer
	scopeID  string
	source   string

	mu        sync.Mutex
	state     State
	svg       string
	err       error
	retries   int
	rendering bool
	zoomOpen  bool
}

// NewController prepares a controller for source. A nil renderer behaves as an unloaded one.
func NewController(renderer Renderer, source string) *Controller {
	if renderer == nil {
		renderer = unavailableRenderer{}
	}
	return &Controller{
		renderer: renderer,
		scopeID:  "mermaid-" + uuid.NewString(),
		source:   Normalize(source),
		state:    StateLoading,
	}
}

// Render performs the pending render. It is a no-op unless the controller is Loading
// and no other render of it is in flight.
func (c *Controller) Render(ctx context.Context) Snapshot {
	c.mu.Lock()
	if c.state != StateLoading || c.rendering {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	c.rendering = true
	c.mu.Unlock()

	svg, err := c.renderer.Render(ctx, c.scopeID, c.source)
	if err == nil && svg == "" {
		err = errors.New("renderer returned an empty diagram")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendering = false
	if err != nil {
		slog.Default().Warn("diagram render failed",
			slog.String("scopeId", c.scopeID),
			slog.Int("retries", c.retries),
			slog.Any("error", err),
		)
		c.state = StateFailed
		c.err = err
		c.svg = ""
		return c.snapshotLocked()
	}
	c.state = StateRendered
	c.svg = Sanitize(svg)
	c.err = nil
	return c.snapshotLocked()
}

// Retry re-enters Loading with the same source and renders again.
func (c *Controller) Retry(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.state != StateFailed {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrNotFailed
	}
	c.retries++
	c.state = StateLoading
	c.err = nil
	c.mu.Unlock()

	return c.Render(ctx), nil
}

// OpenZoom shows the rendered diagram enlarged.
func (c *Controller) OpenZoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRendered {
		return ErrNotRendered
	}
	c.zoomOpen = true
	return nil
}

func (c *Controller) CloseZoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoomOpen = false
}

// HandleKey closes the zoom view on Escape. It reports whether the key was consumed.
func (c *Controller) HandleKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key != "Escape" || !c.zoomOpen {
		return false
	}
	c.zoomOpen = false
	return true
}

func (c *Controller) ScopeID() string {
	return c.scopeID
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		ScopeID:  c.scopeID,
		State:    c.state,
		Source:   c.source,
		SVG:      c.svg,
		Retries:  c.retries,
		ZoomOpen: c.zoomOpen,
	}
	if c.err != nil {
		snapshot.Error = c.err.Error()
	}
	return snapshot
}
