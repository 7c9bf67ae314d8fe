package console

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

// Renderer writes snapshots as plain text, optionally colored.
type Renderer struct {
	Color bool
}

func (r Renderer) paint(color, s string) string {
	if !r.Color {
		return s
	}
	return color + s + colorReset
}

// Render writes the loading indicator, error notification and tiles of snap.
func (r Renderer) Render(w io.Writer, snap Snapshot) error {
	var b strings.Builder

	if snap.Loading {
		fmt.Fprintf(&b, "%s\n", r.paint(colorYellow, "Loading..."))
	}
	if snap.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", r.paint(colorRed, "✖"), r.paint(colorRed, snap.Error))
	}
	if !snap.Loading {
		for i, t := range snap.Tiles {
			r.renderTile(&b, i, t)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) renderTile(b *strings.Builder, index int, t Tile) {
	marker := "▸"
	if t.Expanded {
		marker = "▾"
	}

	title := t.Title
	if title == "" {
		title = "(untitled)"
	}

	fmt.Fprintf(b, "\n[%d] %s %s\n", index+1, marker, r.paint(colorBold, title))
	fmt.Fprintf(b, "    %s\n", r.paint(colorDim, t.Date()))

	if t.Expanded {
		fmt.Fprintf(b, "\n    %s\n", t.Text)
		fmt.Fprintf(b, "    From: %s\n", r.paint(colorCyan, t.URL))
	}
}
