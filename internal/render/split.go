// Package render turns generated study content into display blocks.
package render

import (
	"regexp"
	"strings"
)

type BlockKind string

const (
	KindMarkdown BlockKind = "markdown"
	KindDiagram  BlockKind = "diagram"
)

// Block is one segment of generated content. A diagram block holds the diagram source
// without its fence, a markdown block holds the original text.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Value string    `json:"value"`
}

var (
	diagramFencePattern = regexp.MustCompile("```mermaid[\\s\\S]*?```")
	fenceMarkers        = strings.NewReplacer("```mermaid", "", "```", "")
)

// Split segments content into markdown and diagram blocks in their original order.
// Blocks that are empty after trimming are dropped.
func Split(content string) []Block {
	var blocks []Block
	appendBlock := func(kind BlockKind, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		blocks = append(blocks, Block{Kind: kind, Value: value})
	}

	last := 0
	for _, loc := range diagramFencePattern.FindAllStringIndex(content, -1) {
		appendBlock(KindMarkdown, content[last:loc[0]])
		appendBlock(KindDiagram, strings.TrimSpace(fenceMarkers.Replace(content[loc[0]:loc[1]])))
		last = loc[1]
	}
	appendBlock(KindMarkdown, content[last:])
	return blocks
}

// DiagramSources returns the diagram blocks of content.
func DiagramSources(content string) []string {
	var sources []string
	for _, block := range Split(content) {
		if block.Kind == KindDiagram {
			sources = append(sources, block.Value)
		}
	}
	return sources
}
