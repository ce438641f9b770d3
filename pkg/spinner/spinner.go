// Package spinner gives terminal feedback while scale files are loaded and
// reports are rendered: an animated spinner for steps of unknown length and
// a per-file progress bar for the load phase. Output falls back to plain
// lines when the writer is not a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI escape sequences for terminal control.
const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// Frames is the spinner animation.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const refreshRate = 80 * time.Millisecond

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}

// line rewrites a single terminal line in place.
type line struct {
	w    io.Writer
	last int
}

func (l *line) write(s string) {
	l.clear()
	fmt.Fprint(l.w, s)
	l.last = len(s)
}

func (l *line) clear() {
	if l.last > 0 {
		fmt.Fprint(l.w, carriageReturn+strings.Repeat(" ", l.last)+carriageReturn)
		l.last = 0
	}
}

// finalLine formats the closing status line.
func finalLine(tty bool, ok bool, message string, elapsed time.Duration) string {
	symbol, color := symbolSuccess, colorGreen
	if !ok {
		symbol, color = symbolFailure, colorRed
	}
	if tty {
		symbol = color + symbol + colorReset
	}
	return fmt.Sprintf("%s %s %s\n", symbol, message, formatElapsed(elapsed))
}

// Spinner animates while a single step runs.
type Spinner struct {
	mu      sync.Mutex
	out     line
	tty     bool
	message string
	start   time.Time
	active  bool
	frame   int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a spinner writing to w. A nil writer means os.Stderr.
func New(w io.Writer, message string) *Spinner {
	if w == nil {
		w = os.Stderr
	}
	return &Spinner{out: line{w: w}, tty: IsTerminal(w), message: message}
}

// ForceTTY overrides terminal detection.
func (s *Spinner) ForceTTY(tty bool) *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tty = tty
	return s
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// IsActive reports whether Start has been called without Stop.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start begins the animation. Starting twice is a no-op. Without a
// terminal the message is printed once.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.start = time.Now()
	s.frame = 0

	if !s.tty {
		fmt.Fprintf(s.out.w, "%s...\n", s.message)
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	fmt.Fprint(s.out.w, hideCursor)
	go s.spin(s.stopCh, s.doneCh)
}

func (s *Spinner) spin(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()
	s.render()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	f := Frames[s.frame%len(Frames)]
	s.frame++
	s.out.write(fmt.Sprintf("%s %s %s", f, s.message, formatElapsed(time.Since(s.start))))
}

// Update changes the message shown.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and clears the line. It blocks until the
// animation goroutine has exited.
func (s *Spinner) Stop() {
	s.finish(nil, "")
}

// Success stops the spinner and prints a success line. An empty message
// repeats the spinner message.
func (s *Spinner) Success(message string) {
	ok := true
	s.finish(&ok, message)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(message string) {
	ok := false
	s.finish(&ok, message)
}

func (s *Spinner) finish(ok *bool, message string) {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	stop, done := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()

	if wasActive && stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if wasActive && s.tty {
		s.out.clear()
		fmt.Fprint(s.out.w, showCursor)
	}
	if ok == nil {
		return
	}
	if message == "" {
		message = s.message
	}
	var elapsed time.Duration
	if !s.start.IsZero() {
		elapsed = time.Since(s.start)
	}
	fmt.Fprint(s.out.w, finalLine(s.tty, *ok, message, elapsed))
}
