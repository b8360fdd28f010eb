package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	roots := c.Roots()
	require.Len(t, roots, 12)
	assert.Equal(t, "administrative-supervision", roots[0].ID)

	flowchart, ok := c.Find("flowchart-reasoning")
	require.True(t, ok)
	assert.Equal(t, "Logical Reasoning using Flowcharts", flowchart.Title)
	assert.NotEmpty(t, flowchart.OfficialDescription)
	assert.False(t, flowchart.IsLeaf())

	for _, leaf := range c.Leaves() {
		assert.True(t, leaf.IsLeaf(), leaf.ID)
	}
	assert.Len(t, c.Leaves(), 39)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "valid tree",
			data: `
- id: a
  title: A
  sub_topics:
    - id: a1
      title: A1
`,
		},
		{
			name:    "duplicate id",
			data:    "- id: a\n  title: A\n- id: a\n  title: B\n",
			wantErr: "duplicate topic id",
		},
		{
			name:    "missing id",
			data:    "- title: A\n",
			wantErr: "has no id",
		},
		{
			name:    "not a sequence",
			data:    "id: a\n",
			wantErr: "yaml.Unmarshal()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCatalog_Find(t *testing.T) {
	c := Default()

	got, ok := c.Find("sdlc")
	require.True(t, ok)
	assert.Equal(t, "Systems Development Life Cycle (SDLC)", got.Title)
	assert.True(t, got.IsLeaf())

	_, ok = c.Find("no-such-topic")
	assert.False(t, ok)
}

func TestCatalog_Children(t *testing.T) {
	c := Default()

	tests := []struct {
		name           string
		path           []string
		wantFirstID    string
		wantLen        int
		wantBreadcrumb []string
		wantErr        bool
	}{
		{
			name:        "root level",
			wantFirstID: "administrative-supervision",
			wantLen:     12,
		},
		{
			name:           "category level",
			path:           []string{"system-analysis"},
			wantFirstID:    "sdlc",
			wantLen:        4,
			wantBreadcrumb: []string{"system-analysis"},
		},
		{
			name:    "unknown id",
			path:    []string{"nope"},
			wantErr: true,
		},
		{
			name:    "leaf cannot be entered",
			path:    []string{"system-analysis", "sdlc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, breadcrumb, err := c.Children(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, level, tt.wantLen)
			assert.Equal(t, tt.wantFirstID, level[0].ID)

			var ids []string
			for _, topic := range breadcrumb {
				ids = append(ids, topic.ID)
			}
			assert.Equal(t, tt.wantBreadcrumb, ids)
		})
	}
}

func TestFilter(t *testing.T) {
	level := []Topic{
		{ID: "sdlc", Title: "Systems Development Life Cycle (SDLC)", Description: "Phases", IconName: "sdlc lifecycle development"},
		{ID: "budget", Title: "Budget Management", Description: "Creating IT budgets", IconName: "budget finance analysis"},
		{ID: "contracts", Title: "Contract Administration", Description: "Vendor agreements", IconName: "contract vendor management"},
	}
	bookmarked := map[string]bool{"budget": true}

	tests := []struct {
		name    string
		query   string
		mode    FilterMode
		wantIDs []string
	}{
		{name: "empty query lists everything", mode: FilterAll, wantIDs: []string{"sdlc", "budget", "contracts"}},
		{name: "title is case-insensitive", query: "BUDGET", mode: FilterAll, wantIDs: []string{"budget"}},
		{name: "matches description", query: "vendor", mode: FilterAll, wantIDs: []string{"contracts"}},
		{name: "matches icon keywords", query: "lifecycle", mode: FilterAll, wantIDs: []string{"sdlc"}},
		{name: "bookmarked only", mode: FilterBookmarked, wantIDs: []string{"budget"}},
		{name: "bookmarked and query", query: "contract", mode: FilterBookmarked, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(level, tt.query, tt.mode, func(id string) bool { return bookmarked[id] })
			ids := []string{}
			for _, topic := range got {
				ids = append(ids, topic.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestParseFilterMode(t *testing.T) {
	got, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, got)

	got, err = ParseFilterMode("bookmarked")
	require.NoError(t, err)
	assert.Equal(t, FilterBookmarked, got)

	_, err = ParseFilterMode("starred")
	assert.Error(t, err)
}
