package help

// Style wraps text in ANSI codes when Color is set and passes it through
// unchanged otherwise.
type Style struct {
	Color bool
}

func (s Style) wrap(codes, text string) string {
	if !s.Color || text == "" {
		return text
	}
	return codes + text + ColorReset
}

// Header is bold cyan, for section titles.
func (s Style) Header(text string) string { return s.wrap(ColorBold+ColorCyan, text) }

// Category is bold green.
func (s Style) Category(text string) string { return s.wrap(ColorBold+ColorGreen, text) }

// Command is cyan.
func (s Style) Command(text string) string { return s.wrap(ColorCyan, text) }

// Argument is yellow. Examples use the same color.
func (s Style) Argument(text string) string { return s.wrap(ColorYellow, text) }

// Shortcut is bold yellow.
func (s Style) Shortcut(text string) string { return s.wrap(ColorBold+ColorYellow, text) }

// Dim is gray, for descriptions and structure.
func (s Style) Dim(text string) string { return s.wrap(ColorGray, text) }

// Bold is bold.
func (s Style) Bold(text string) string { return s.wrap(ColorBold, text) }

// Alert is red, for values outside their reference band.
func (s Style) Alert(text string) string { return s.wrap(ColorRed, text) }

// Good is green.
func (s Style) Good(text string) string { return s.wrap(ColorGreen, text) }

// CommandWithShortcut renders "/help (or /h)".
func (s Style) CommandWithShortcut(cmd, shortcut string) string {
	if shortcut == "" {
		return s.Command(cmd)
	}
	return s.Command(cmd) + s.Dim(" (or ") + s.Shortcut(shortcut) + s.Dim(")")
}

// HighlightExample colors the command word cyan and its arguments yellow.
func (s Style) HighlightExample(line string) string {
	name, args := splitFirstWord(line)
	if name == "" {
		return ""
	}
	out := s.Command(name)
	if args != "" {
		out += s.Argument(" " + args)
	}
	return out
}

// ExampleLine renders "  /show 2 -> Show the second measurement".
func (s Style) ExampleLine(cmd, desc string) string {
	return "  " + s.HighlightExample(cmd) + s.Dim(" -> ") + s.Dim(desc)
}

func splitFirstWord(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' {
			rest := line[i+1:]
			for len(rest) > 0 && rest[0] == ' ' {
				rest = rest[1:]
			}
			return line[:i], rest
		}
	}
	return line, ""
}
