// Package scroll keeps a transcript pinned to its newest message unless the
// reader has scrolled away from the bottom.
package scroll

// DefaultThreshold is the distance from the bottom, in display units, under
// which a scroll position still counts as "at the bottom".
const DefaultThreshold = 64

// settleFrames is how many frames a scheduled scroll waits so freshly
// appended content has been laid out before it is measured.
const settleFrames = 2

// Metrics describes a scrollable region after a scroll event.
type Metrics struct {
	ContentHeight  int
	Offset         int
	ViewportHeight int
}

// Distance is how far the bottom of the viewport is from the end of content.
func (m Metrics) Distance() int {
	return m.ContentHeight - (m.Offset + m.ViewportHeight)
}

// Coordinator is owned by the UI goroutine and is not safe for concurrent use.
type Coordinator struct {
	threshold    int
	autoStick    bool
	lastRevision uint64
	observed     bool
	pending      int
	footer       int
}

// New returns a coordinator that starts stuck to the bottom. A threshold of
// zero or less selects DefaultThreshold.
func New(threshold int) *Coordinator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Coordinator{threshold: threshold, autoStick: true}
}

// OnScroll records a user scroll and recomputes auto-stick.
func (c *Coordinator) OnScroll(m Metrics) {
	c.autoStick = m.Distance() < c.threshold
}

// Stick forces auto-stick back on.
func (c *Coordinator) Stick() {
	c.autoStick = true
}

func (c *Coordinator) AutoStick() bool {
	return c.autoStick
}

// Observe reports a transcript revision. When the revision is new and the
// view is stuck to the bottom, a scroll is scheduled and Observe returns
// true so the caller can start driving frames.
func (c *Coordinator) Observe(revision uint64) bool {
	if c.observed && revision == c.lastRevision {
		return false
	}
	c.observed = true
	c.lastRevision = revision
	if !c.autoStick {
		return false
	}
	c.pending = settleFrames
	return true
}

// Pending reports whether a scheduled scroll has not fired yet.
func (c *Coordinator) Pending() bool {
	return c.pending > 0
}

// Frame advances the scheduled scroll by one rendering frame and reports
// true on the frame that should scroll to the bottom.
func (c *Coordinator) Frame() bool {
	if c.pending == 0 {
		return false
	}
	c.pending--
	return c.pending == 0
}

// SetFooterHeight records the measured height of the input footer.
func (c *Coordinator) SetFooterHeight(h int) {
	if h < 0 {
		h = 0
	}
	c.footer = h
}

func (c *Coordinator) FooterHeight() int {
	return c.footer
}

// Reserve returns the transcript height left in total once the footer has
// been reserved, never less than one line.
func (c *Coordinator) Reserve(total int) int {
	body := total - c.footer
	if body < 1 {
		return 1
	}
	return body
}
