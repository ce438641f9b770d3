package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks the user to confirm an action such as overwriting an
// existing report.
type Prompter interface {
	// Confirm shows message and reports whether the user answered yes.
	Confirm(message string) (bool, error)
}

// InteractivePrompter reads answers from a terminal.
type InteractivePrompter struct {
	reader io.Reader
	writer io.Writer
}

// NewInteractivePrompter uses stdin and stdout.
func NewInteractivePrompter() *InteractivePrompter {
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

// NewInteractivePrompterWithIO uses the given streams.
func NewInteractivePrompterWithIO(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: r, writer: w}
}

// Confirm prints message followed by " [y/N]: ". Only "y" or "yes"
// confirms; an empty answer or end of input is no.
func (p *InteractivePrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", message)

	scanner := bufio.NewScanner(p.reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

var _ Prompter = (*InteractivePrompter)(nil)

// AlwaysYes confirms without asking. It backs --force and non-interactive
// runs.
type AlwaysYes struct{}

// Confirm implements Prompter.
func (AlwaysYes) Confirm(string) (bool, error) { return true, nil }

// ConfirmOverwrite asks before replacing path. It returns true when path
// does not exist yet.
func ConfirmOverwrite(p Prompter, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return true, nil
	}
	return p.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path))
}
