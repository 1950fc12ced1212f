package feed

// ActiveVisibility is the visibility ratio an item needs before it becomes
// the one playing item in the full-bleed feed.
const ActiveVisibility = 0.6

// ReadAheadWindow is how close to the end of the loaded items the active
// index may get before the next page should be fetched.
const ReadAheadWindow = 3

// Controller tracks which feed item is playing. Exactly one item plays at a
// time: the most visible one at or above ActiveVisibility. Switching the
// active item resets its playback position, and the shared mute flag applies
// to whichever item is active.
type Controller struct {
	length      int
	hasMore     bool
	visibility  []float64
	activeIndex int
	muted       bool
}

func NewController(length int, hasMore bool) *Controller {
	return &Controller{
		length:     length,
		hasMore:    hasMore,
		visibility: make([]float64, length),
		muted:      true,
	}
}

func (c *Controller) ActiveIndex() int {
	return c.activeIndex
}

func (c *Controller) Muted() bool {
	return c.muted
}

func (c *Controller) ToggleMute() {
	c.muted = !c.muted
}

// Append extends the controller after a next-page fetch landed.
func (c *Controller) Append(n int, hasMore bool) {
	c.length += n
	c.hasMore = hasMore
	c.visibility = append(c.visibility, make([]float64, n)...)
}

// ObserveVisibility records one item's visibility ratio and recomputes the
// active item: the most visible item at or above the activation threshold.
// Returns true when the active item changed, which is when the caller
// resets playback position to zero and pauses everything else.
func (c *Controller) ObserveVisibility(index int, ratio float64) bool {
	if index < 0 || index >= c.length {
		return false
	}
	c.visibility[index] = ratio

	best := c.activeIndex
	bestRatio := ActiveVisibility
	for i, r := range c.visibility {
		if r >= bestRatio && (r > bestRatio || i == c.activeIndex) {
			best = i
			bestRatio = r
		}
	}
	if best == c.activeIndex {
		return false
	}
	c.activeIndex = best
	return true
}

// ScrollToIndex moves the active item directly, clamped to the loaded
// range. It is idempotent: scrolling to the current index changes nothing.
// Returns the index actually activated.
func (c *Controller) ScrollToIndex(i int) int {
	if c.length == 0 {
		return 0
	}
	if i < 0 {
		i = 0
	}
	if i > c.length-1 {
		i = c.length - 1
	}
	c.activeIndex = i
	return i
}

// Advance moves the active item forward by one, clamped at the end.
func (c *Controller) Advance() int {
	return c.ScrollToIndex(c.activeIndex + 1)
}

// Previous moves the active item back by one, clamped at the start.
func (c *Controller) Previous() int {
	return c.ScrollToIndex(c.activeIndex - 1)
}

// NeedsNextPage reports whether the active item is within the read-ahead
// window of the last loaded item while more pages remain.
func (c *Controller) NeedsNextPage() bool {
	return c.hasMore && c.activeIndex >= c.length-ReadAheadWindow
}
