package command

import (
	"time"

	"github.com/vovakirdan/ircserv/internal/core"
)

const reasonFlood = "Excess Flood"

// FloodLimit caps the commands a client may send per window. A zero Lines
// disables the check.
type FloodLimit struct {
	Lines  int
	Window time.Duration
}

func (r *Runner) flooding(c *core.Client) bool {
	limit := r.deps.Flood
	if limit.Lines <= 0 || limit.Window <= 0 {
		return false
	}
	return c.CountLine(r.clock.Now(), limit.Window) > limit.Lines
}
