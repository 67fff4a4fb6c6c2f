// Package markdown renders coach output (markdown) to HTML for web
// views. Raw HTML in the source is never passed through: coach text
// ultimately contains model output, which is untrusted.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Service renders markdown to HTML.
type Service interface {
	Render(content string) (string, error)
}

type Option func(*service)

// WithHardWraps renders single newlines as <br>, matching how chat
// bubbles display coach replies.
func WithHardWraps() Option {
	return func(s *service) {
		s.rendererOptions = append(s.rendererOptions, html.WithHardWraps())
	}
}

type service struct {
	md              goldmark.Markdown
	rendererOptions []renderer.Option
}

// NewService creates a markdown rendering Service. GFM tables and task
// lists are enabled; workout blocks use both.
func NewService(opts ...Option) Service {
	s := &service{}
	for _, opt := range opts {
		opt(s)
	}

	s.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(s.rendererOptions...),
	)
	return s
}

func (s *service) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
