package help

import "strings"

const (
	commandColumn = 24
	indent        = "  "
	indentCommand = "    "
	indentExample = "      "
)

// RenderFull writes the grouped command listing followed by the tips.
func (r *Renderer) RenderFull() {
	s := r.style
	r.writeln("")
	r.writeln(s.Header(indent + "Tanita Explorer Commands"))
	r.writeln("")
	for _, cat := range CategoryOrder {
		r.renderCategory(cat)
	}
	r.RenderTips()
}

// RenderCommand writes the detailed help of one command. It reports
// whether the command exists.
func (r *Renderer) RenderCommand(name string) bool {
	s := r.style
	cmd, ok := Lookup(name)
	if !ok {
		r.writeln(indent + "Command '" + name + "' not found. Use /help to see all commands.")
		return false
	}

	r.writeln("")
	r.writeln(indent + s.CommandWithShortcut(cmd.Name, cmd.Shortcut))
	r.writeln(indent + s.Dim(cmd.Description))
	r.writeln("")
	r.writeln(indent + s.Bold("Usage:") + " " + s.Argument(cmd.Usage))
	r.writeln("")
	if len(cmd.Examples) > 0 {
		r.writeln(indent + s.Bold("Examples:"))
		for _, ex := range cmd.Examples {
			r.writeln(indentCommand + s.ExampleLine(ex.Command, ex.Description))
		}
		r.writeln("")
	}
	return true
}

// RenderTips writes aliases and key bindings.
func (r *Renderer) RenderTips() {
	s := r.style
	rule := indent + s.Dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, commandColumn+20))
	bar := indentCommand + s.Dim(BoxVertical+" ")

	r.writeln(indent + s.Category("Tips"))
	r.writeln(rule)
	r.writeln(bar + s.Dim("Aliases: ") + s.Shortcut("/l") + s.Dim(" list  ") +
		s.Shortcut("/d") + s.Dim(" describe  ") + s.Shortcut("/q") + s.Dim(" quit"))
	r.writeln(bar + s.Dim("Decode:  ") + s.Argument("Wk,80.2,FW,20.1") + s.Dim(" (paste a line as is)"))
	r.writeln(bar + s.Dim("Keys:    ") + s.Shortcut("Tab") + s.Dim(" complete  ") +
		s.Shortcut("Ctrl+D") + s.Dim(" exit  ") + s.Shortcut("↑↓") + s.Dim(" history"))
	r.writeln("")
}

func (r *Renderer) renderCategory(cat Category) {
	cmds := CommandsIn(cat)
	if len(cmds) == 0 {
		return
	}
	s := r.style
	r.writeln(indent + s.Category(cat.DisplayName()))
	r.writeln(indent + s.Dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, commandColumn+20)))
	for _, cmd := range cmds {
		name := PadRight(s.CommandWithShortcut(cmd.Name, cmd.Shortcut), commandColumn)
		r.writeln(indentCommand + s.Dim(BoxVertical+" ") + name + s.Dim(cmd.Description))
		if len(cmd.Examples) > 0 {
			r.writeln(indentExample + s.Dim(BoxVertical+"   e.g. ") + s.HighlightExample(cmd.Examples[0].Command))
		}
	}
	r.writeln("")
}
