package ptr

import (
	"fmt"

	"go.uber.org/zap"
)

// State is the lifecycle state of a shared referent's control block.
type State uint8

const (
	// StateLive means at least one Shared handle owns the referent.
	StateLive State = iota
	// StateExpired means the referent was destroyed but Weak handles remain.
	StateExpired
	// StateFreed means no handle references the control block any more.
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateExpired:
		return "expired"
	case StateFreed:
		return "freed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// control is the bookkeeping shared by every Shared and Weak handle of one
// referent. Counts are plain integers: handles are not safe for concurrent use.
type control struct {
	destroy    func()
	strong     int
	weak       int
	state      State
	destroying bool
}

func newControl(destroy func()) *control {
	return &control{destroy: destroy, strong: 1}
}

func (c *control) acquireStrong() {
	if c.strong <= 0 {
		panic(fmt.Sprintf("ptr: acquiring strong reference on %s control block", c.state))
	}
	c.strong++
}

func (c *control) releaseStrong() {
	c.strong--
	switch {
	case c.strong > 0:
		return
	case c.strong < 0:
		panic(fmt.Sprintf("ptr: strong count dropped to %d", c.strong))
	}

	c.state = StateExpired
	c.destroying = true
	d := c.destroy
	c.destroy = nil
	if d != nil {
		d()
	}
	c.destroying = false

	if c.weak == 0 {
		c.free()
	}
}

func (c *control) acquireWeak() {
	c.weak++
}

func (c *control) releaseWeak() {
	c.weak--
	if c.weak < 0 {
		panic(fmt.Sprintf("ptr: weak count dropped to %d", c.weak))
	}
	if c.weak == 0 && c.strong == 0 && !c.destroying {
		c.free()
	}
}

func (c *control) free() {
	if c.state == StateFreed {
		return
	}
	c.state = StateFreed
	Logger().Debug("control block freed", zap.String("addr", fmt.Sprintf("%p", c)))
}
