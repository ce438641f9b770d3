package help

// Category groups shell commands in the help listing.
type Category string

const (
	// CategoryData browses the loaded measurements:
	// /list, /show, /gauges, /compare, /files
	CategoryData Category = "data"

	// CategoryCodes explains the field vocabulary:
	// /codes, /describe, /search, /decode
	CategoryCodes Category = "codes"

	// CategoryGeneral holds /help and /quit.
	CategoryGeneral Category = "general"
)

// CategoryOrder is the listing order.
var CategoryOrder = []Category{CategoryData, CategoryCodes, CategoryGeneral}

var categoryNames = map[Category]string{
	CategoryData:    "Measurements",
	CategoryCodes:   "Field codes",
	CategoryGeneral: "General",
}

// DisplayName returns the heading shown for the category.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// Command describes one shell command.
type Command struct {
	// Name includes the leading slash.
	Name     string
	Shortcut string
	Category Category

	Description string
	Usage       string
	Examples    []Example

	// TakesCode marks commands whose argument is a field code.
	TakesCode bool
}

// Example is one sample invocation.
type Example struct {
	Command     string
	Description string
}

// Commands is the registry of shell commands.
var Commands = []Command{
	{
		Name:        "/list",
		Shortcut:    "/l",
		Category:    CategoryData,
		Description: "List loaded measurements in file order",
		Usage:       "/list",
	},
	{
		Name:        "/show",
		Category:    CategoryData,
		Description: "Show every field of one measurement",
		Usage:       "/show <n>",
		Examples: []Example{
			{Command: "/show 1", Description: "First measurement"},
			{Command: "/show last", Description: "Most recent measurement by date"},
		},
	},
	{
		Name:        "/gauges",
		Category:    CategoryData,
		Description: "Classify a measurement against reference ranges",
		Usage:       "/gauges <n>",
		Examples: []Example{
			{Command: "/gauges last", Description: "Bands for the most recent measurement"},
		},
	},
	{
		Name:        "/compare",
		Category:    CategoryData,
		Description: "Compare the two most recent measurements",
		Usage:       "/compare",
	},
	{
		Name:        "/files",
		Category:    CategoryData,
		Description: "Show the files that were read and their line counts",
		Usage:       "/files",
	},
	{
		Name:        "/codes",
		Category:    CategoryCodes,
		Description: "List the field dictionary grouped by tier",
		Usage:       "/codes",
	},
	{
		Name:        "/describe",
		Shortcut:    "/d",
		Category:    CategoryCodes,
		Description: "Explain one field code",
		Usage:       "/describe <code>",
		TakesCode:   true,
		Examples: []Example{
			{Command: "/describe FW", Description: "Body fat percentage"},
			{Command: "/describe Bt", Description: "Body type with its allowed values"},
		},
	},
	{
		Name:        "/search",
		Category:    CategoryCodes,
		Description: "Find codes whose label contains the text",
		Usage:       "/search <text>",
		Examples: []Example{
			{Command: "/search muscle", Description: "All muscle mass fields"},
		},
	},
	{
		Name:        "/decode",
		Category:    CategoryCodes,
		Description: "Decode a pasted export line (a bare line does the same)",
		Usage:       "/decode <csv line>",
		Examples: []Example{
			{Command: "/decode Wk,80.2,FW,20.1", Description: "Two fields with labels"},
		},
	},
	{
		Name:        "/help",
		Shortcut:    "/h",
		Category:    CategoryGeneral,
		Description: "Show this help or the help for one command",
		Usage:       "/help [command]",
		Examples: []Example{
			{Command: "/help show", Description: "Detailed /show help"},
		},
	},
	{
		Name:        "/quit",
		Shortcut:    "/q",
		Category:    CategoryGeneral,
		Description: "Leave the shell",
		Usage:       "/quit",
	},
}

// CommandsIn returns the commands of a category in registry order.
func CommandsIn(cat Category) []Command {
	var out []Command
	for _, cmd := range Commands {
		if cmd.Category == cat {
			out = append(out, cmd)
		}
	}
	return out
}

// Lookup finds a command by name or shortcut, with or without the slash.
func Lookup(name string) (Command, bool) {
	if name != "" && name[0] != '/' {
		name = "/" + name
	}
	for _, cmd := range Commands {
		if cmd.Name == name || (cmd.Shortcut != "" && cmd.Shortcut == name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// Names returns every command name and shortcut without the slash, plus
// the /exit alias.
func Names() []string {
	var out []string
	for _, cmd := range Commands {
		out = append(out, cmd.Name[1:])
		if cmd.Shortcut != "" {
			out = append(out, cmd.Shortcut[1:])
		}
	}
	return append(out, "exit")
}
