package help

import (
	"bytes"
	"strings"
	"testing"
)

// =============================================================================
// Box Drawing Tests
// =============================================================================

func TestBoxBorders(t *testing.T) {
	box := NewBox(10)

	if got := box.Top(); !strings.HasPrefix(got, BoxTopLeft) || !strings.HasSuffix(got, BoxTopRight) {
		t.Errorf("Top() should use the rounded corners, got: %s", got)
	}
	if got := box.Mid(); !strings.HasPrefix(got, BoxTeeLeft) || !strings.HasSuffix(got, BoxTeeRight) {
		t.Errorf("Mid() should use tee junctions, got: %s", got)
	}
	if got := VisibleLength(box.Bottom()); got != 12 {
		t.Errorf("Bottom() visible length should be 12, got: %d", got)
	}
}

func TestBoxRow(t *testing.T) {
	box := NewBox(10)

	row := box.Row("abc")
	if VisibleLength(row) != 12 {
		t.Errorf("Row() should pad to 12 visible runes, got %d: %q", VisibleLength(row), row)
	}

	long := box.Row("abcdefghijklmnop")
	if VisibleLength(long) != 12 {
		t.Errorf("Row() should truncate to 12 visible runes, got %d", VisibleLength(long))
	}

	styled := box.Row(ColorCyan + "abc" + ColorReset)
	if VisibleLength(styled) != 12 {
		t.Errorf("Row() should ignore ANSI codes when padding, got %d", VisibleLength(styled))
	}
}

func TestBoxColumns(t *testing.T) {
	box := NewBox(20)
	row := box.Columns("Weight", "80.2 kg")

	if VisibleLength(row) != 22 {
		t.Errorf("Columns() should fill the box, got %d", VisibleLength(row))
	}
	if !strings.HasSuffix(row, "80.2 kg"+BoxVertical) {
		t.Errorf("Columns() should right-align the value, got %q", row)
	}
}

func TestTruncateVisible(t *testing.T) {
	got := truncateVisible(ColorRed+"abcdef", 3)
	if VisibleLength(got) != 3 {
		t.Errorf("expected 3 visible runes, got %d", VisibleLength(got))
	}
	if !strings.HasSuffix(got, ColorReset) {
		t.Errorf("expected an open style to be closed, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("expected 'ab   ', got %q", got)
	}
	if got := PadRight("abcdef", 3); got != "abcdef" {
		t.Errorf("expected long text unchanged, got %q", got)
	}
}

// =============================================================================
// Style Tests
// =============================================================================

func TestStyleColor(t *testing.T) {
	on := Style{Color: true}
	if got := on.Command("/show"); got != ColorCyan+"/show"+ColorReset {
		t.Errorf("expected cyan command, got %q", got)
	}
	if got := on.Header(""); got != "" {
		t.Errorf("expected empty text to stay empty, got %q", got)
	}

	off := Style{}
	if got := off.Alert("high"); got != "high" {
		t.Errorf("expected plain text without color, got %q", got)
	}
}

func TestHighlightExample(t *testing.T) {
	s := Style{}
	if got := s.HighlightExample("/show  2"); got != "/show 2" {
		t.Errorf("expected collapsed separator, got %q", got)
	}
	if got := s.HighlightExample(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}

	colored := Style{Color: true}.HighlightExample("/describe FW")
	if !strings.Contains(colored, ColorCyan+"/describe") || !strings.Contains(colored, ColorYellow+" FW") {
		t.Errorf("expected command and argument colors, got %q", colored)
	}
}

func TestCommandWithShortcut(t *testing.T) {
	s := Style{}
	if got := s.CommandWithShortcut("/help", "/h"); got != "/help (or /h)" {
		t.Errorf("expected '/help (or /h)', got %q", got)
	}
	if got := s.CommandWithShortcut("/files", ""); got != "/files" {
		t.Errorf("expected '/files', got %q", got)
	}
}

// =============================================================================
// Command Registry Tests
// =============================================================================

func TestCommandRegistry(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range Commands {
		if !strings.HasPrefix(cmd.Name, "/") {
			t.Errorf("command %q should start with /", cmd.Name)
		}
		if cmd.Description == "" || cmd.Usage == "" {
			t.Errorf("command %s should have description and usage", cmd.Name)
		}
		if seen[cmd.Name] {
			t.Errorf("command %s registered twice", cmd.Name)
		}
		seen[cmd.Name] = true

		if _, ok := categoryNames[cmd.Category]; !ok {
			t.Errorf("command %s has unknown category %q", cmd.Name, cmd.Category)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := map[string]string{
		"show":   "/show",
		"/show":  "/show",
		"/d":     "/describe",
		"q":      "/quit",
		"/files": "/files",
	}
	for in, want := range tests {
		cmd, ok := Lookup(in)
		if !ok || cmd.Name != want {
			t.Errorf("Lookup(%q): expected %s, got %s (found=%v)", in, want, cmd.Name, ok)
		}
	}
	if _, ok := Lookup("extract"); ok {
		t.Error("expected unknown command to be missing")
	}
	if _, ok := Lookup(""); ok {
		t.Error("expected empty name to be missing")
	}
}

func TestNames(t *testing.T) {
	names := strings.Join(Names(), " ")
	for _, want := range []string{"list", "l", "describe", "d", "quit", "q", "exit"} {
		if !strings.Contains(" "+names+" ", " "+want+" ") {
			t.Errorf("expected %q in %s", want, names)
		}
	}
}

// =============================================================================
// Renderer Tests
// =============================================================================

func TestRenderFull(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).WithColor(false).RenderFull()
	output := buf.String()

	if !strings.Contains(output, "Tanita Explorer Commands") {
		t.Error("RenderFull() should contain the header")
	}
	for _, cat := range CategoryOrder {
		if !strings.Contains(output, cat.DisplayName()) {
			t.Errorf("RenderFull() should contain category %q", cat.DisplayName())
		}
	}
	for _, cmd := range Commands {
		if !strings.Contains(output, cmd.Name) {
			t.Errorf("RenderFull() should contain command %s", cmd.Name)
		}
	}
	if !strings.Contains(output, "e.g. /show 1") {
		t.Error("RenderFull() should contain inline examples")
	}
	if strings.Contains(output, "\033[") {
		t.Error("RenderFull() without color should not emit escape codes")
	}
}

func TestRenderCommand(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf).WithColor(false)

	if !r.RenderCommand("describe") {
		t.Fatal("RenderCommand('describe') should return true")
	}
	output := buf.String()
	if !strings.Contains(output, "/describe (or /d)") {
		t.Errorf("expected name with shortcut, got:\n%s", output)
	}
	if !strings.Contains(output, "Usage: /describe <code>") {
		t.Errorf("expected usage line, got:\n%s", output)
	}
	if !strings.Contains(output, "Examples:") {
		t.Error("expected examples section")
	}
}

func TestRenderCommandNotFound(t *testing.T) {
	var buf bytes.Buffer
	if NewRenderer(&buf).RenderCommand("nonexistent") {
		t.Error("RenderCommand('nonexistent') should return false")
	}
	if !strings.Contains(buf.String(), "not found") {
		t.Error("expected 'not found' message")
	}
}

func TestRenderTips(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).WithColor(false).RenderTips()
	output := buf.String()

	for _, want := range []string{"Tips", "/l", "/q", "Tab", "Ctrl+D", "Wk,80.2,FW,20.1"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderTips should contain %q", want)
		}
	}
}
