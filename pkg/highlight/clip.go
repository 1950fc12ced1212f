package highlight

// MarkOffsetSeconds is how far behind the live playback position a marked
// highlight lands. By the time a player reacts and hits the key, the moment
// they want is already this many seconds in the past.
const MarkOffsetSeconds = 5.0

// DefaultClipPadding is the clip window padding a freshly marked point gets
// on each side of its timestamp.
const DefaultClipPadding = 5.0

// Window is the [Start, End] playback range derived from a point's
// timestamp and padding.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ClipWindow computes the playback window for a point. The start is clamped
// at zero, so End >= Start holds for any timestamp >= 0 and paddings >= 0.
func ClipWindow(timestamp, before, after float64) Window {
	start := timestamp - before
	if start < 0 {
		start = 0
	}
	return Window{Start: start, End: timestamp + after}
}

// MarkTimestamp converts a live playback position into the timestamp
// recorded for a new point: MarkOffsetSeconds back, never negative.
func MarkTimestamp(now float64) float64 {
	t := now - MarkOffsetSeconds
	if t < 0 {
		return 0
	}
	return t
}
