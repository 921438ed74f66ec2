package chat

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown answers into terminal output.
type Renderer struct {
	width int
	md    *glamour.TermRenderer
}

func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{width: width}
}

// Render returns styled markdown, falling back to the plain text.
func (r *Renderer) Render(content string) string {
	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return content + "\n"
		}
		r.md = md
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}
