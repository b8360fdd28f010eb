// Package diagram drives an external Mermaid renderer for the diagram blocks of generated content.
package diagram

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

//go:generate mockgen -source=renderer.go -destination=../mocks/diagram/mock_renderer.go -package=mock_diagram

// Renderer turns Mermaid source into SVG markup. scopeID must be unique per rendered block
// so that element ids of diagrams shown together do not collide.
type Renderer interface {
	Render(ctx context.Context, scopeID string, source string) (string, error)
}

// ErrRendererUnavailable is reported when no renderer is configured.
var ErrRendererUnavailable = errors.New("diagram renderer not loaded")

// unavailableRenderer fails every render, like a page where the Mermaid library never loaded.
type unavailableRenderer struct{}

func (unavailableRenderer) Render(context.Context, string, string) (string, error) {
	return "", ErrRendererUnavailable
}

var graphDirectionPattern = regexp.MustCompile(`(graph\s+(?:TD|LR|TB|BT))\s+(.+)`)

// Normalize trims the source and moves the statements that follow a graph direction
// declaration onto their own line. Only the first declaration is rewritten.
func Normalize(source string) string {
	source = strings.TrimSpace(source)
	loc := graphDirectionPattern.FindStringSubmatchIndex(source)
	if loc == nil {
		return source
	}
	return source[:loc[0]] + source[loc[2]:loc[3]] + "\n" + source[loc[4]:loc[5]] + source[loc[1]:]
}
