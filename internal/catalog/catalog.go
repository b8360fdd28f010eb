// Package catalog holds the static topic tree of the examination.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed topics.yml
var embeddedTopics []byte

// Topic is a node of the topic tree. A topic without sub topics is a leaf that can be studied or quizzed.
type Topic struct {
	ID                  string  `yaml:"id" json:"id"`
	Title               string  `yaml:"title" json:"title"`
	Description         string  `yaml:"description" json:"description"`
	IconName            string  `yaml:"icon_name" json:"iconName"`
	OfficialDescription string  `yaml:"official_description,omitempty" json:"officialDescription,omitempty"`
	SubTopics           []Topic `yaml:"sub_topics,omitempty" json:"subTopics,omitempty"`
}

func (t Topic) IsLeaf() bool {
	return len(t.SubTopics) == 0
}

// FilterMode selects which topics of a level are listed.
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterBookmarked FilterMode = "bookmarked"
)

// Catalog is immutable once loaded.
type Catalog struct {
	topics []Topic
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(embeddedTopics)
	if err != nil {
		panic(fmt.Sprintf("embedded topics.yml is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML topic tree and rejects empty or duplicated ids.
func Parse(data []byte) (*Catalog, error) {
	var topics []Topic
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}

	seen := make(map[string]bool)
	var check func([]Topic) error
	check = func(level []Topic) error {
		for _, topic := range level {
			if topic.ID == "" {
				return fmt.Errorf("topic %q has no id", topic.Title)
			}
			if seen[topic.ID] {
				return fmt.Errorf("duplicate topic id %q", topic.ID)
			}
			seen[topic.ID] = true
			if err := check(topic.SubTopics); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(topics); err != nil {
		return nil, err
	}
	return &Catalog{topics: topics}, nil
}

// Roots returns the top level categories.
func (c *Catalog) Roots() []Topic {
	return c.topics
}

// Find looks a topic up anywhere in the tree.
func (c *Catalog) Find(id string) (Topic, bool) {
	return find(c.topics, id)
}

func find(level []Topic, id string) (Topic, bool) {
	for _, topic := range level {
		if topic.ID == id {
			return topic, true
		}
		if found, ok := find(topic.SubTopics, id); ok {
			return found, true
		}
	}
	return Topic{}, false
}

// Children resolves a navigation path of topic ids and returns the topics shown at its end
// together with the breadcrumb of visited categories.
func (c *Catalog) Children(path []string) ([]Topic, []Topic, error) {
	level := c.topics
	breadcrumb := make([]Topic, 0, len(path))
	for _, id := range path {
		var next *Topic
		for i := range level {
			if level[i].ID == id {
				next = &level[i]
				break
			}
		}
		if next == nil {
			return nil, nil, fmt.Errorf("topic %q is not a child of the current level", id)
		}
		if next.IsLeaf() {
			return nil, nil, fmt.Errorf("topic %q has no sub topics", id)
		}
		breadcrumb = append(breadcrumb, *next)
		level = next.SubTopics
	}
	return level, breadcrumb, nil
}

// Leaves flattens the tree into its studyable topics, in catalog order.
func (c *Catalog) Leaves() []Topic {
	var leaves []Topic
	var walk func([]Topic)
	walk = func(level []Topic) {
		for _, topic := range level {
			if topic.IsLeaf() {
				leaves = append(leaves, topic)
				continue
			}
			walk(topic.SubTopics)
		}
	}
	walk(c.topics)
	return leaves
}

// Filter keeps topics of a level whose title, description or icon keywords contain query
// (case-insensitive), and, in bookmarked mode, only bookmarked topics.
func Filter(level []Topic, query string, mode FilterMode, isBookmarked func(id string) bool) []Topic {
	query = strings.ToLower(query)
	result := make([]Topic, 0, len(level))
	for _, topic := range level {
		if !matches(topic, query) {
			continue
		}
		if mode == FilterBookmarked && (isBookmarked == nil || !isBookmarked(topic.ID)) {
			continue
		}
		result = append(result, topic)
	}
	return result
}

func matches(topic Topic, query string) bool {
	return strings.Contains(strings.ToLower(topic.Title), query) ||
		strings.Contains(strings.ToLower(topic.Description), query) ||
		strings.Contains(strings.ToLower(topic.IconName), query)
}

// ParseFilterMode accepts "all" and "bookmarked".
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case FilterAll, FilterBookmarked:
		return FilterMode(s), nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("invalid filter mode %q, must be one of all, bookmarked", s)
	}
}
