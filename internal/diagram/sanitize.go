package diagram

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	svgPolicy = newSVGPolicy()

	// paintValue admits colors, keywords, numbers and references to ids inside the same document.
	paintValue = regexp.MustCompile(`^(?:url\(#[\w.:-]+\)|[#\w\s.,%-]+|(?:rgb|rgba|hsl|hsla)\([\d\s.,%]+\))$`)

	styleElement = regexp.MustCompile(`(?is)(<style[^>]*>)(.*?)(</style>)`)

	// unsafeCSS are the value fragments that make a browser fetch or execute something.
	unsafeCSS = []string{"url(", "image(", "image-set(", "expression(", "javascript:", "@import", `\`}

	allowedAtRules = map[string]bool{"@media": true, "@keyframes": true}

	styleProperties = []string{
		"fill", "fill-opacity", "stroke", "stroke-width", "stroke-opacity", "stroke-dasharray",
		"stroke-linecap", "stroke-linejoin", "opacity", "color", "background-color",
		"font-size", "font-family", "font-weight", "font-style", "line-height", "text-align",
		"text-anchor", "text-decoration", "dominant-baseline", "white-space", "display",
		"visibility", "max-width", "min-width", "width", "height", "padding", "margin",
		"border", "overflow", "table-layout", "transform",
	}
)

// newSVGPolicy admits the elements and presentation attributes Mermaid emits.
// Scripts, event handlers and links are dropped; inline styles keep only known drawing
// properties whose values cannot load anything.
func newSVGPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	// style elements pass through here and are cleaned by sanitizeStyleSheets
	p.AllowUnsafe(true)
	p.AllowElements(
		"svg", "g", "path", "rect", "circle", "ellipse", "line", "polyline", "polygon",
		"text", "tspan", "defs", "marker", "style", "title", "desc", "symbol",
		"clippath", "lineargradient", "radialgradient", "stop",
		"foreignobject", "div", "span", "p", "br", "b", "strong", "i", "em",
	)
	p.AllowAttrs(
		"id", "class",
		"x", "y", "x1", "y1", "x2", "y2", "cx", "cy", "r", "rx", "ry", "dx", "dy",
		"width", "height", "d", "points", "transform", "viewbox", "preserveaspectratio",
		"xmlns", "version", "role", "aria-roledescription", "aria-labelledby", "aria-describedby",
		"fill-opacity", "stroke-width", "stroke-dasharray", "stroke-linecap",
		"stroke-linejoin", "opacity",
		"markerwidth", "markerheight", "markerunits", "refx", "refy", "orient",
		"text-anchor", "dominant-baseline", "alignment-baseline", "font-size", "font-family", "font-weight",
		"offset", "stop-color", "data-id", "data-node", "data-et", "data-look",
	).Globally()
	p.AllowAttrs("fill", "stroke", "clip-path", "marker-start", "marker-end").Matching(paintValue).Globally()
	p.AllowStyles(styleProperties...).MatchingHandler(safeCSSValue).Globally()
	return p
}

func safeCSSValue(value string) bool {
	lower := strings.ToLower(value)
	for _, fragment := range unsafeCSS {
		if strings.Contains(lower, fragment) {
			return false
		}
	}
	return true
}

// Sanitize strips everything from renderer output that is not plain SVG drawing markup.
func Sanitize(svg string) string {
	return sanitizeStyleSheets(svgPolicy.Sanitize(svg))
}

// sanitizeStyleSheets rewrites every style element keeping only rules whose declarations
// pass safeCSSValue. A sheet that does not parse is emptied.
func sanitizeStyleSheets(svg string) string {
	return styleElement.ReplaceAllStringFunc(svg, func(element string) string {
		parts := styleElement.FindStringSubmatch(element)
		sheet, err := parser.Parse(parts[2])
		if err != nil {
			slog.Default().Debug("dropping unparsable diagram stylesheet", "error", err)
			return parts[1] + parts[3]
		}
		sheet.Rules = safeRules(sheet.Rules)
		return parts[1] + sheet.String() + parts[3]
	})
}

func safeRules(rules []*css.Rule) []*css.Rule {
	kept := make([]*css.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Kind == css.AtRule && !allowedAtRules[strings.ToLower(rule.Name)] {
			continue
		}
		declarations := make([]*css.Declaration, 0, len(rule.Declarations))
		for _, declaration := range rule.Declarations {
			if safeCSSValue(declaration.Value) {
				declarations = append(declarations, declaration)
			}
		}
		rule.Declarations = declarations
		rule.Rules = safeRules(rule.Rules)
		kept = append(kept, rule)
	}
	return kept
}
