package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// BarRenderer draws a single-line progress bar on a TTY, or prints one
// timestamped line per stage change on anything else.
type BarRenderer struct {
	mu        sync.Mutex
	out       io.Writer
	start     time.Time
	isTTY     bool
	width     int
	lastStage Stage
	drawn     bool
}

// NewBarRenderer creates a renderer that writes to out. TTY mode and
// terminal width are detected when out is a file.
func NewBarRenderer(out io.Writer) *BarRenderer {
	r := &BarRenderer{out: out, start: time.Now(), width: 80}
	if f, ok := out.(fdWriter); ok {
		fd := f.Fd()
		r.isTTY = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		if r.isTTY {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				r.width = w
			}
		}
	}
	return r
}

// Handle processes a progress event. It satisfies the Callback type and is
// safe for concurrent use.
func (r *BarRenderer) Handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Elapsed = time.Since(r.start)
	if r.isTTY {
		r.renderTTY(e)
	} else if e.Stage != r.lastStage || e.Error != nil || (e.Total > 0 && e.Done == e.Total) {
		fmt.Fprintf(r.out, "[%s] %s\n", formatElapsed(e.Elapsed), describe(e))
	}
	r.lastStage = e.Stage
}

// Finish ends the bar line.
func (r *BarRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isTTY && r.drawn {
		fmt.Fprint(r.out, "\n")
		r.drawn = false
	}
}

func (r *BarRenderer) renderTTY(e Event) {
	line := fmt.Sprintf("  %s %3d%%  %s  %s",
		renderBar(e.Percent(), r.barWidth()), int(e.Percent()*100), formatElapsed(e.Elapsed), describe(e))
	if len(line) > r.width {
		line = line[:r.width]
	}
	fmt.Fprintf(r.out, "\r\033[2K%s", line)
	r.drawn = true
}

func describe(e Event) string {
	msg := e.Message
	if e.Total > 0 {
		msg = fmt.Sprintf("%s (%d/%d)", msg, e.Done, e.Total)
	}
	if e.Error != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Error)
	}
	return msg
}

// barWidth returns the width available for the bar after brackets,
// percent, elapsed time and some room for the message.
func (r *BarRenderer) barWidth() int {
	w := r.width/2 - 16
	if w < 10 {
		w = 10
	}
	if w > 40 {
		w = 40
	}
	return w
}

// renderBar draws a [####....] style bar of the given width.
func renderBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
