// Package help renders the command reference of the tanita explorer shell.
//
// Output uses rounded box drawing and ANSI colors: categories in bold
// green, command names in cyan, arguments and examples in yellow and
// descriptions in gray. Color can be switched off per renderer, which is
// what non-terminal output and tests use.
//
//	r := help.NewRenderer(os.Stdout)
//	r.RenderFull()
//	r.RenderCommand("show")
package help

import (
	"fmt"
	"io"
)

// Box drawing characters.
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
	BoxTeeLeft     = "├"
	BoxTeeRight    = "┤"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorGray   = "\033[90m"
)

// Renderer formats and writes help output.
type Renderer struct {
	w     io.Writer
	style Style
}

// NewRenderer creates a colored renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, style: Style{Color: true}}
}

// WithColor toggles ANSI styling.
func (r *Renderer) WithColor(on bool) *Renderer {
	r.style.Color = on
	return r
}

// Style returns the renderer's style so callers can match its output.
func (r *Renderer) Style() Style {
	return r.style
}

func (r *Renderer) writeln(s string) {
	fmt.Fprintln(r.w, s)
}
