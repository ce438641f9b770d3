package help

import "strings"

// Box draws a bordered panel with a fixed inner width. The shell uses it
// for measurement cards.
type Box struct {
	Width int
}

// NewBox creates a Box with the given inner width.
func NewBox(width int) *Box {
	return &Box{Width: width}
}

// Top returns ╭───╮.
func (b *Box) Top() string {
	return BoxTopLeft + strings.Repeat(BoxHorizontal, b.Width) + BoxTopRight
}

// Mid returns ├───┤.
func (b *Box) Mid() string {
	return BoxTeeLeft + strings.Repeat(BoxHorizontal, b.Width) + BoxTeeRight
}

// Bottom returns ╰───╯.
func (b *Box) Bottom() string {
	return BoxBottomLeft + strings.Repeat(BoxHorizontal, b.Width) + BoxBottomRight
}

// Row returns a left-aligned content row, padded or truncated to the width.
func (b *Box) Row(content string) string {
	n := VisibleLength(content)
	if n >= b.Width {
		return BoxVertical + truncateVisible(content, b.Width) + BoxVertical
	}
	return BoxVertical + content + strings.Repeat(" ", b.Width-n) + BoxVertical
}

// Columns returns a row with left and right aligned to the box edges.
func (b *Box) Columns(left, right string) string {
	gap := b.Width - VisibleLength(left) - VisibleLength(right)
	if gap < 1 {
		return b.Row(left + " " + right)
	}
	return BoxVertical + left + strings.Repeat(" ", gap) + right + BoxVertical
}

// VisibleLength counts runes outside ANSI escape sequences.
func VisibleLength(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}

// truncateVisible cuts s to width visible runes, keeping escape sequences
// and closing any style left open.
func truncateVisible(s string, width int) string {
	var sb strings.Builder
	visible := 0
	inEscape := false
	open := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			open = true
			sb.WriteRune(r)
			continue
		}
		if inEscape {
			sb.WriteRune(r)
			if r == 'm' {
				inEscape = false
				if strings.HasSuffix(sb.String(), ColorReset) {
					open = false
				}
			}
			continue
		}
		if visible >= width {
			break
		}
		sb.WriteRune(r)
		visible++
	}
	if open {
		sb.WriteString(ColorReset)
	}
	return sb.String()
}

// PadRight pads s with spaces to width visible runes.
func PadRight(s string, width int) string {
	if n := VisibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
