package led

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Console is a Line that prints level changes to a writer, for running the
// indicator without hardware. Repeated writes of the same level are skipped.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
	now   func() time.Time
	on    bool
	set   bool
}

// NewConsole creates a console line writing to w. Each line carries the time
// elapsed since creation.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, start: time.Now(), now: time.Now}
}

// Ready always reports true.
func (c *Console) Ready() bool {
	return true
}

// Set prints the new level if it changed.
func (c *Console) Set(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set && c.on == on {
		return
	}
	c.on, c.set = on, true

	glyph := "○ off"
	if on {
		glyph = "● on"
	}
	elapsed := c.now().Sub(c.start).Truncate(time.Millisecond)
	fmt.Fprintf(c.w, "%10s  %s\n", elapsed, glyph)
}
