package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	barFilled = "█"
	barEmpty  = "░"
	barWidth  = 20
)

// FileProgress tracks a batch of files being decoded. Each Step marks one
// file finished; the bar shows the last file name and the running row
// count.
type FileProgress struct {
	mu     sync.Mutex
	out    line
	tty    bool
	label  string
	total  int
	done   int
	rows   int
	failed int
	last   string
	start  time.Time
	active bool
}

// NewFileProgress creates a bar for total files writing to w. A nil writer
// means os.Stderr.
func NewFileProgress(w io.Writer, label string, total int) *FileProgress {
	if w == nil {
		w = os.Stderr
	}
	return &FileProgress{out: line{w: w}, tty: IsTerminal(w), label: label, total: total}
}

// ForceTTY overrides terminal detection.
func (p *FileProgress) ForceTTY(tty bool) *FileProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tty = tty
	return p
}

// Start shows the empty bar.
func (p *FileProgress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	p.active = true
	p.start = time.Now()
	if p.tty {
		fmt.Fprint(p.out.w, hideCursor)
		p.out.write(p.status())
	}
}

// Step records one finished file with the number of rows it produced.
// err marks the file as failed. In non-terminal mode one line is printed
// per file.
func (p *FileProgress) Step(name string, rows int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	if p.done < p.total {
		p.done++
	}
	p.rows += rows
	p.last = name
	if err != nil {
		p.failed++
	}

	if p.tty {
		p.out.write(p.status())
		return
	}
	if err != nil {
		fmt.Fprintf(p.out.w, "[%d/%d] %s: %v\n", p.done, p.total, name, err)
	} else {
		fmt.Fprintf(p.out.w, "[%d/%d] %s: %d rows\n", p.done, p.total, name, rows)
	}
}

// Counts returns files done, rows decoded and files failed so far.
func (p *FileProgress) Counts() (done, rows, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.rows, p.failed
}

// Percentage returns the share of files done, 0-100.
func (p *FileProgress) Percentage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return 100
	}
	return float64(p.done) / float64(p.total) * 100
}

// status renders "label [████░░░░] 2/5 files, 40 rows (DATA2.CSV)".
// Caller must hold the mutex.
func (p *FileProgress) status() string {
	filled := barWidth
	if p.total > 0 {
		filled = p.done * barWidth / p.total
	}
	var sb strings.Builder
	if p.label != "" {
		sb.WriteString(p.label)
		sb.WriteString(" ")
	}
	sb.WriteString("[")
	sb.WriteString(strings.Repeat(barFilled, filled))
	sb.WriteString(strings.Repeat(barEmpty, barWidth-filled))
	fmt.Fprintf(&sb, "] %d/%d files, %d rows", p.done, p.total, p.rows)
	if p.failed > 0 {
		fmt.Fprintf(&sb, ", %d failed", p.failed)
	}
	if p.last != "" {
		fmt.Fprintf(&sb, " (%s)", p.last)
	}
	return sb.String()
}

// Complete stops the bar and prints message with a success or failure
// mark depending on whether any file failed.
func (p *FileProgress) Complete(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty && p.active {
		p.out.clear()
		fmt.Fprint(p.out.w, showCursor)
	}
	p.active = false
	var elapsed time.Duration
	if !p.start.IsZero() {
		elapsed = time.Since(p.start)
	}
	fmt.Fprint(p.out.w, finalLine(p.tty, p.failed == 0, message, elapsed))
}
