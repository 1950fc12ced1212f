package highlight

import (
	"context"
	"errors"
)

// Point is one highlight tag inside an editing session.
type Point struct {
	ID         string
	Timestamp  float64
	Action     Action
	ClipBefore float64
	ClipAfter  float64
}

// Window returns the point's clip playback range.
func (p Point) Window() Window {
	return ClipWindow(p.Timestamp, p.ClipBefore, p.ClipAfter)
}

// Store persists the points of one match.
type Store interface {
	Insert(ctx context.Context, p Point) (Point, error)
	SaveOffsets(ctx context.Context, id string, before, after float64) error
	Delete(ctx context.Context, id string) error
}

// Player is the video surface a session drives: read the playhead, seek,
// and control playback.
type Player interface {
	CurrentTime() float64
	SeekTo(t float64)
	Play()
	Pause()
}

// ErrNothingToUndo is returned by UndoLast when no point is eligible.
var ErrNothingToUndo = errors.New("no recently marked point to undo")

// Session is the editing model for one match's highlight points: marking
// during playback, buffering offset edits until an explicit save, clip
// review with auto-pause, and a single-slot undo of the last mark.
// A session belongs to one viewer and is not safe for concurrent use;
// only ApplyDirtyOffsets fans out internally.
type Session struct {
	store  Store
	player Player

	points         []Point
	selectedID     string
	selectedAction Action
	lastInsertedID string
	dirty          map[string]bool
	active         *activeClip
	muted          bool
	inputFocused   bool
}

type activeClip struct {
	pointID string
	window  Window
}

func NewSession(store Store, player Player, points []Point) *Session {
	return &Session{
		store:          store,
		player:         player,
		points:         append([]Point(nil), points...),
		selectedAction: ActionSpike,
		dirty:          make(map[string]bool),
	}
}

func (s *Session) Points() []Point {
	return s.points
}

func (s *Session) SelectedID() string {
	return s.selectedID
}

func (s *Session) SelectedAction() Action {
	return s.selectedAction
}

func (s *Session) SelectAction(a Action) {
	s.selectedAction = a
}

func (s *Session) CanUndo() bool {
	return s.lastInsertedID != ""
}

// DirtyIDs returns the IDs of points with unsaved offset edits.
func (s *Session) DirtyIDs() []string {
	ids := make([]string, 0, len(s.dirty))
	for _, p := range s.points {
		if s.dirty[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ActiveClipID returns the point whose clip window is currently bounding
// playback, or "" when none is.
func (s *Session) ActiveClipID() string {
	if s.active == nil {
		return ""
	}
	return s.active.pointID
}

func (s *Session) Muted() bool {
	return s.muted
}

// Mark captures the current playback moment as a new point. The recorded
// timestamp sits MarkOffsetSeconds behind the playhead, clamped at zero,
// and the player is seeked back there so the user sees what was captured.
// Passing the zero Action marks with the currently selected one.
func (s *Session) Mark(ctx context.Context, action Action) (Point, error) {
	if action == "" {
		action = s.selectedAction
	} else {
		s.selectedAction = action
	}

	t := MarkTimestamp(s.player.CurrentTime())
	s.player.SeekTo(t)

	inserted, err := s.store.Insert(ctx, Point{
		Timestamp:  t,
		Action:     action,
		ClipBefore: DefaultClipPadding,
		ClipAfter:  DefaultClipPadding,
	})
	if err != nil {
		return Point{}, err
	}

	s.points = append(s.points, inserted)
	s.selectedID = inserted.ID
	s.lastInsertedID = inserted.ID
	return inserted, nil
}

// UpdateOffset changes a point's clip window locally and marks it dirty.
// Nothing is persisted until ApplyDirtyOffsets. Nil fields are left alone;
// values are clamped at zero.
func (s *Session) UpdateOffset(id string, before, after *float64) {
	for i := range s.points {
		if s.points[i].ID != id {
			continue
		}
		if before != nil {
			s.points[i].ClipBefore = clampNonNegative(*before)
		}
		if after != nil {
			s.points[i].ClipAfter = clampNonNegative(*after)
		}
		s.dirty[id] = true
		return
	}
}

// ApplyDirtyOffsets persists every dirty point's offsets concurrently and
// clears the dirty flag for each point whose write succeeded. Failed edits
// stay dirty so they can be retried. Returns the per-point outcomes and the
// failure count.
func (s *Session) ApplyDirtyOffsets(ctx context.Context) ([]OffsetResult, int) {
	var dirtyPoints []Point
	for _, p := range s.points {
		if s.dirty[p.ID] {
			dirtyPoints = append(dirtyPoints, p)
		}
	}
	if len(dirtyPoints) == 0 {
		return nil, 0
	}

	results := ApplyOffsets(ctx, s.store, dirtyPoints)
	for _, r := range results {
		if r.Err == nil {
			delete(s.dirty, r.PointID)
		}
	}
	return results, CountFailures(results)
}

// Seek selects a point, bounds playback to its clip window, and starts
// playing from the window start. Playback auto-pauses once TimeUpdate
// reports the playhead past the window end.
func (s *Session) Seek(id string) {
	for _, p := range s.points {
		if p.ID != id {
			continue
		}
		w := p.Window()
		s.selectedID = p.ID
		s.active = &activeClip{pointID: p.ID, window: w}
		s.player.SeekTo(w.Start)
		s.player.Play()
		return
	}
}

// TimeUpdate feeds the playhead position back into the session. When an
// active clip's end boundary is passed the player is paused and the clip
// deactivated.
func (s *Session) TimeUpdate(t float64) {
	if s.active == nil {
		return
	}
	if t >= s.active.window.End {
		s.player.Pause()
		s.active = nil
	}
}

// UndoLast deletes the most recently marked point. The undo slot is one
// deep: it only re-arms when another point is marked.
func (s *Session) UndoLast(ctx context.Context) error {
	if s.lastInsertedID == "" {
		return ErrNothingToUndo
	}
	return s.Delete(ctx, s.lastInsertedID)
}

// Delete removes a point and clears any selection, undo slot, dirty flag or
// active clip that referenced it.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	kept := s.points[:0]
	for _, p := range s.points {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.points = kept

	delete(s.dirty, id)
	if s.selectedID == id {
		s.selectedID = ""
	}
	if s.lastInsertedID == id {
		s.lastInsertedID = ""
	}
	if s.active != nil && s.active.pointID == id {
		s.active = nil
	}
	return nil
}

// SetInputFocus suppresses hotkey handling while focus is inside a text
// input.
func (s *Session) SetInputFocus(focused bool) {
	s.inputFocused = focused
}

// HandleKey dispatches the session hotkeys: digits 1-N select and mark with
// the Nth action, 'm' marks with the current action, 'x' toggles mute, 'u'
// undoes the last mark. Returns false when the key was not handled.
func (s *Session) HandleKey(ctx context.Context, key rune) (bool, error) {
	if s.inputFocused {
		return false, nil
	}

	switch {
	case key >= '1' && key <= '9':
		action, ok := ActionForDigit(int(key - '0'))
		if !ok {
			return false, nil
		}
		_, err := s.Mark(ctx, action)
		return true, err
	case key == 'm':
		_, err := s.Mark(ctx, "")
		return true, err
	case key == 'x':
		s.muted = !s.muted
		return true, nil
	case key == 'u':
		if !s.CanUndo() {
			return true, nil
		}
		return true, s.UndoLast(ctx)
	}
	return false, nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
