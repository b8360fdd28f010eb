package render

import (
	"regexp"
	"strings"
)

type NodeKind string

const (
	NodeHeading2  NodeKind = "h2"
	NodeHeading3  NodeKind = "h3"
	NodeList      NodeKind = "list"
	NodeParagraph NodeKind = "paragraph"
)

// Span is a run of inline text.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Node is a block of a formatted markdown segment. List nodes carry Items, the others Spans.
type Node struct {
	Kind  NodeKind `json:"kind"`
	Spans []Span   `json:"spans,omitempty"`
	Items [][]Span `json:"items,omitempty"`
}

type Document struct {
	Nodes []Node `json:"nodes"`
}

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Format parses the small markdown subset produced for study guides:
// "## " and "### " headings, "- " or "* " bullet items, blank lines and paragraphs.
// Anything else is a paragraph. Bold is the only inline rule and headings are kept verbatim.
func Format(markdown string) Document {
	var (
		doc  Document
		list *Node
	)
	closeList := func() {
		if list != nil {
			doc.Nodes = append(doc.Nodes, *list)
			list = nil
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			closeList()
		case strings.HasPrefix(line, "## "):
			closeList()
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeHeading2, Spans: []Span{{Text: line[3:]}}})
		case strings.HasPrefix(line, "### "):
			closeList()
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeHeading3, Spans: []Span{{Text: line[4:]}}})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			if list == nil {
				list = &Node{Kind: NodeList}
			}
			list.Items = append(list.Items, parseInline(line[2:]))
		default:
			closeList()
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeParagraph, Spans: parseInline(line)})
		}
	}
	closeList()
	return doc
}

func parseInline(text string) []Span {
	var spans []Span
	last := 0
	for _, loc := range boldPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[2]:loc[3]], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}
