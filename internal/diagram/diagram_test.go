package diagram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_diagram "github.com/examprep/examprep/internal/mocks/diagram"
)

const sampleSVG = `<svg id="scope" viewBox="0 0 10 10"><g><rect width="10" height="10"></rect></g></svg>`

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "directive sharing a line is split",
			source: "graph TD A-->B",
			want:   "graph TD\nA-->B",
		},
		{
			name:   "already on its own line",
			source: "graph LR\nA-->B",
			want:   "graph LR\nA-->B",
		},
		{
			name:   "surrounding whitespace is trimmed",
			source: "\n  graph BT X-->Y  \n",
			want:   "graph BT\nX-->Y",
		},
		{
			name:   "only the first declaration is rewritten",
			source: "graph TB A-->B\ngraph LR C-->D",
			want:   "graph TB\nA-->B\ngraph LR C-->D",
		},
		{
			name:   "other diagram types are untouched",
			source: "sequenceDiagram\nA->>B: hi",
			want:   "sequenceDiagram\nA->>B: hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.source))
		})
	}
}

func TestController_Render(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m *mock_diagram.MockRenderer)
		wantState State
		wantError string
	}{
		{
			name: "success keeps sanitized svg",
			setupMock: func(m *mock_diagram.MockRenderer) {
				m.EXPECT().Render(gomock.Any(), gomock.Any(), "graph TD\nA-->B").Return(sampleSVG, nil)
			},
			wantState: StateRendered,
		},
		{
			name: "renderer error fails",
			setupMock: func(m *mock_diagram.MockRenderer) {
				m.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("Parse error on line 2"))
			},
			wantState: StateFailed,
			wantError: "Parse error on line 2",
		},
		{
			name: "empty output fails",
			setupMock: func(m *mock_diagram.MockRenderer) {
				m.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
			},
			wantState: StateFailed,
			wantError: "empty diagram",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			renderer := mock_diagram.NewMockRenderer(ctrl)
			tt.setupMock(renderer)

			c := NewController(renderer, "graph TD A-->B")
			assert.Equal(t, StateLoading, c.Snapshot().State)

			got := c.Render(context.Background())
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, "graph TD\nA-->B", got.Source)
			if tt.wantError != "" {
				assert.Contains(t, got.Error, tt.wantError)
				assert.Empty(t, got.SVG)
			} else {
				assert.Empty(t, got.Error)
				assert.Contains(t, got.SVG, "<rect")
			}

			// a settled controller does not render again
			again := c.Render(context.Background())
			assert.Equal(t, got, again)
		})
	}
}

func TestController_ScopeIDs(t *testing.T) {
	a := NewController(nil, "graph TD A-->B")
	b := NewController(nil, "graph TD A-->B")

	assert.True(t, strings.HasPrefix(a.ScopeID(), "mermaid-"))
	assert.NotEqual(t, a.ScopeID(), b.ScopeID())
}

func TestController_NilRenderer(t *testing.T) {
	got := NewController(nil, "graph TD A-->B").Render(context.Background())

	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, ErrRendererUnavailable.Error(), got.Error)
}

func TestController_Retry(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mock_diagram.NewMockRenderer(ctrl)

	c := NewController(renderer, "graph LR\nA-->B")

	_, err := c.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNotFailed)

	gomock.InOrder(
		renderer.EXPECT().Render(gomock.Any(), c.ScopeID(), "graph LR\nA-->B").Return("", errors.New("renderer crashed")),
		renderer.EXPECT().Render(gomock.Any(), c.ScopeID(), "graph LR\nA-->B").Return("", errors.New("renderer crashed")),
		renderer.EXPECT().Render(gomock.Any(), c.ScopeID(), "graph LR\nA-->B").Return(sampleSVG, nil),
	)

	assert.Equal(t, StateFailed, c.Render(context.Background()).State)

	got, err := c.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, 1, got.Retries)

	got, err = c.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateRendered, got.State)
	assert.Equal(t, 2, got.Retries)
	assert.Empty(t, got.Error)

	_, err = c.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNotFailed)
}

func TestController_Zoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mock_diagram.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return(sampleSVG, nil)

	c := NewController(renderer, "graph TD A-->B")
	assert.ErrorIs(t, c.OpenZoom(), ErrNotRendered)

	c.Render(context.Background())
	require.NoError(t, c.OpenZoom())
	assert.True(t, c.Snapshot().ZoomOpen)

	assert.False(t, c.HandleKey("Enter"))
	assert.True(t, c.Snapshot().ZoomOpen)

	assert.True(t, c.HandleKey("Escape"))
	assert.False(t, c.Snapshot().ZoomOpen)
	assert.False(t, c.HandleKey("Escape"))

	require.NoError(t, c.OpenZoom())
	c.CloseZoom()
	assert.False(t, c.Snapshot().ZoomOpen)
	assert.Equal(t, StateRendered, c.Snapshot().State)
}

func TestRenderAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mock_diagram.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, source string) (string, error) {
			if strings.Contains(source, "broken") {
				return "", errors.New("syntax error")
			}
			return sampleSVG, nil
		}).Times(3)

	controllers := NewControllers(renderer, []string{"graph TD A-->B", "graph TD broken", "graph LR C-->D"})
	got := RenderAll(context.Background(), controllers, 2)

	require.Len(t, got, 3)
	assert.Equal(t, StateRendered, got[0].State)
	assert.Equal(t, StateFailed, got[1].State)
	assert.Equal(t, StateRendered, got[2].State)

	ids := map[string]bool{}
	for _, s := range got {
		ids[s.ScopeID] = true
	}
	assert.Len(t, ids, 3)
}

func TestRenderAll_SlowDiagramDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	var rendered atomic.Int32
	renderer := rendererFunc(func(ctx context.Context, _ string, source string) (string, error) {
		if source == "slow" {
			<-release
		} else {
			rendered.Add(1)
		}
		return sampleSVG, nil
	})

	controllers := NewControllers(renderer, []string{"slow", "fast-1", "fast-2"})
	done := make(chan []Snapshot)
	go func() { done <- RenderAll(context.Background(), controllers, 3) }()

	assert.Eventually(t, func() bool { return rendered.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRendered, controllers[1].Snapshot().State)
	assert.Equal(t, StateLoading, controllers[0].Snapshot().State)

	close(release)
	got := <-done
	assert.Equal(t, StateRendered, got[0].State)
}

type rendererFunc func(ctx context.Context, scopeID string, source string) (string, error)

func (f rendererFunc) Render(ctx context.Context, scopeID string, source string) (string, error) {
	return f(ctx, scopeID, source)
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`<svg id="d"><script>alert(1)</script><g onclick="steal()"><a href="javascript:x"><text x="1">label</text></a><rect width="10"></rect></g></svg>`)

	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "javascript")
	assert.Contains(t, got, "label")
	assert.Contains(t, got, `width="10"`)
}

func TestSanitize_Styles(t *testing.T) {
	tests := []struct {
		name        string
		svg         string
		contains    []string
		notContains []string
	}{
		{
			name:        "inline styles keep drawing properties only",
			svg:         `<svg><rect style="fill:#ECECFF;stroke:#9370DB;background:url(https://evil.test/x.png)"></rect></svg>`,
			contains:    []string{"fill: #ECECFF", "stroke: #9370DB"},
			notContains: []string{"evil.test", "background"},
		},
		{
			name:        "inline style loading a resource is dropped",
			svg:         `<svg><div style="background-color:url(https://evil.test/x.png)">label</div></svg>`,
			contains:    []string{"label"},
			notContains: []string{"evil.test", "style="},
		},
		{
			name:        "paint attributes may reference local ids",
			svg:         `<svg><path marker-end="url(#arrowhead)" fill="none" stroke="rgb(51, 51, 51)"></path><rect fill="url(https://evil.test/p)"></rect></svg>`,
			contains:    []string{`marker-end="url(#arrowhead)"`, `fill="none"`, `stroke="rgb(51, 51, 51)"`},
			notContains: []string{"evil.test"},
		},
		{
			name: "style sheets lose imports and fetching values",
			svg: `<svg><style>@import url(https://evil.test/a.css);` +
				`#m .node rect{fill:#ECECFF;stroke:#9370DB;}` +
				`#m .label{background-image:url(https://evil.test/b.png);color:#333;}</style></svg>`,
			contains:    []string{"#m .node rect", "fill: #ECECFF", "color: #333"},
			notContains: []string{"evil.test", "@import", "background-image"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.svg)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestKrokiRenderer(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantSVG   string
		wantError string
	}{
		{
			name:    "returns svg with scoped ids",
			status:  http.StatusOK,
			body:    `<svg id="my-svg"><style>#my-svg{fill:red}</style></svg>`,
			wantSVG: `<svg id="mermaid-1"><style>#mermaid-1{fill:red}</style></svg>`,
		},
		{
			name:      "reports syntax errors",
			status:    http.StatusBadRequest,
			body:      "Error 400: Parse error on line 1\n",
			wantError: "Parse error on line 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/mermaid/svg", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, "graph TD\nA-->B", string(body))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewKrokiRenderer(server.URL+"/", time.Second).Render(context.Background(), "mermaid-1", "graph TD\nA-->B")
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSVG, got)
		})
	}
}
