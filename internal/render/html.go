package render

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// markupPolicy admits exactly the elements the formatter emits.
var markupPolicy = bluemonday.NewPolicy().AllowElements("h2", "h3", "ul", "li", "p", "strong")

// HTML renders a document as display markup. Text is escaped before the markup is built
// and the result is sanitized, so model output can never inject elements of its own.
func HTML(doc Document) string {
	var b strings.Builder
	for _, node := range doc.Nodes {
		switch node.Kind {
		case NodeHeading2:
			writeElement(&b, "h2", node.Spans)
		case NodeHeading3:
			writeElement(&b, "h3", node.Spans)
		case NodeList:
			b.WriteString("<ul>")
			for _, item := range node.Items {
				writeElement(&b, "li", item)
			}
			b.WriteString("</ul>")
		case NodeParagraph:
			writeElement(&b, "p", node.Spans)
		}
	}
	return markupPolicy.Sanitize(b.String())
}

// MarkdownHTML formats and renders one markdown block.
func MarkdownHTML(markdown string) string {
	return HTML(Format(markdown))
}

func writeElement(b *strings.Builder, tag string, spans []Span) {
	b.WriteString("<" + tag + ">")
	for _, span := range spans {
		if span.Bold {
			b.WriteString("<strong>" + html.EscapeString(span.Text) + "</strong>")
			continue
		}
		b.WriteString(html.EscapeString(span.Text))
	}
	b.WriteString("</" + tag + ">")
}
