package highlight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	inserts []Point
	saved   map[string][2]float64
	deleted []string

	failSave   map[string]error
	failInsert error
	failDelete error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:    make(map[string][2]float64),
		failSave: make(map[string]error),
	}
}

func (f *fakeStore) Insert(ctx context.Context, p Point) (Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return Point{}, f.failInsert
	}
	f.nextID++
	p.ID = fmt.Sprintf("pt-%d", f.nextID)
	f.inserts = append(f.inserts, p)
	return p, nil
}

func (f *fakeStore) SaveOffsets(ctx context.Context, id string, before, after float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSave[id]; err != nil {
		return err
	}
	f.saved[id] = [2]float64{before, after}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePlayer struct {
	current float64
	seeks   []float64
	playing bool
}

func (f *fakePlayer) CurrentTime() float64 { return f.current }
func (f *fakePlayer) SeekTo(t float64)     { f.seeks = append(f.seeks, t); f.current = t }
func (f *fakePlayer) Play()                { f.playing = true }
func (f *fakePlayer) Pause()               { f.playing = false }

func TestSessionMark(t *testing.T) {
	store := newFakeStore()
	player := &fakePlayer{current: 12}
	session := NewSession(store, player, nil)

	p, err := session.Mark(context.Background(), ActionAce)
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	if p.Timestamp != 7 {
		t.Errorf("Expected mark at playhead 12 to record 7, got %.1f", p.Timestamp)
	}
	if p.ClipBefore != DefaultClipPadding || p.ClipAfter != DefaultClipPadding {
		t.Errorf("Expected default clip padding, got %.1f/%.1f", p.ClipBefore, p.ClipAfter)
	}
	if len(player.seeks) != 1 || player.seeks[0] != 7 {
		t.Errorf("Expected player to seek back to the recorded timestamp, got %v", player.seeks)
	}
	if session.SelectedID() != p.ID {
		t.Errorf("Expected new point to be selected, got %q", session.SelectedID())
	}
	if session.SelectedAction() != ActionAce {
		t.Errorf("Expected selected action to follow the mark, got %q", session.SelectedAction())
	}
	if !session.CanUndo() {
		t.Error("Expected undo to be armed after marking")
	}
}

func TestSessionMarkUsesSelectedAction(t *testing.T) {
	store := newFakeStore()
	session := NewSession(store, &fakePlayer{current: 30}, nil)
	session.SelectAction(ActionBlock)

	p, err := session.Mark(context.Background(), "")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if p.Action != ActionBlock {
		t.Errorf("Expected mark to use the selected action, got %q", p.Action)
	}
}

func TestSessionMarkInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.failInsert = errors.New("insert failed")
	session := NewSession(store, &fakePlayer{current: 30}, nil)

	if _, err := session.Mark(context.Background(), ActionSpike); err == nil {
		t.Fatal("Expected mark to surface the store error")
	}
	if len(session.Points()) != 0 {
		t.Error("Expected no point to be kept after a failed insert")
	}
	if session.CanUndo() {
		t.Error("Expected undo to stay disarmed after a failed insert")
	}
}

func TestSessionApplyDirtyOffsetsPartialFailure(t *testing.T) {
	points := []Point{
		{ID: "a", Timestamp: 10, Action: ActionSpike, ClipBefore: 5, ClipAfter: 5},
		{ID: "b", Timestamp: 20, Action: ActionSet, ClipBefore: 5, ClipAfter: 5},
	}
	store := newFakeStore()
	store.failSave["b"] = errors.New("write failed")
	session := NewSession(store, &fakePlayer{}, points)

	before := 3.0
	after := 8.0
	session.UpdateOffset("a", &before, &after)
	session.UpdateOffset("b", &before, nil)

	results, failed := session.ApplyDirtyOffsets(context.Background())
	if failed != 1 {
		t.Fatalf("Expected exactly one failure, got %d", failed)
	}
	if len(results) != 2 {
		t.Fatalf("Expected a result per dirty point, got %d", len(results))
	}

	dirty := session.DirtyIDs()
	if len(dirty) != 1 || dirty[0] != "b" {
		t.Errorf("Expected only the failed point to stay dirty, got %v", dirty)
	}
	if got := store.saved["a"]; got != [2]float64{3, 8} {
		t.Errorf("Expected point a offsets persisted as 3/8, got %v", got)
	}

	// Retry after the store recovers.
	delete(store.failSave, "b")
	_, failed = session.ApplyDirtyOffsets(context.Background())
	if failed != 0 {
		t.Fatalf("Expected retry to succeed, got %d failures", failed)
	}
	if len(session.DirtyIDs()) != 0 {
		t.Errorf("Expected no dirty points after retry, got %v", session.DirtyIDs())
	}
}

func TestSessionApplyDirtyOffsetsNoEdits(t *testing.T) {
	session := NewSession(newFakeStore(), &fakePlayer{}, []Point{{ID: "a"}})
	results, failed := session.ApplyDirtyOffsets(context.Background())
	if results != nil || failed != 0 {
		t.Errorf("Expected no-op with no dirty points, got %v / %d", results, failed)
	}
}

func TestSessionUpdateOffsetClamps(t *testing.T) {
	session := NewSession(newFakeStore(), &fakePlayer{}, []Point{{ID: "a", ClipBefore: 5, ClipAfter: 5}})

	neg := -2.0
	session.UpdateOffset("a", &neg, nil)
	if got := session.Points()[0].ClipBefore; got != 0 {
		t.Errorf("Expected negative offset clamped to 0, got %.1f", got)
	}
	if got := session.Points()[0].ClipAfter; got != 5 {
		t.Errorf("Expected untouched offset to stay 5, got %.1f", got)
	}
}

func TestSessionSeekAndAutoPause(t *testing.T) {
	points := []Point{{ID: "a", Timestamp: 30, Action: ActionSpike, ClipBefore: 5, ClipAfter: 5}}
	player := &fakePlayer{}
	session := NewSession(newFakeStore(), player, points)

	session.Seek("a")
	if session.ActiveClipID() != "a" {
		t.Fatalf("Expected active clip a, got %q", session.ActiveClipID())
	}
	if player.current != 25 || !player.playing {
		t.Errorf("Expected playback from window start 25, got t=%.1f playing=%v", player.current, player.playing)
	}

	session.TimeUpdate(30)
	if !player.playing {
		t.Error("Expected playback to continue inside the window")
	}

	session.TimeUpdate(35.2)
	if player.playing {
		t.Error("Expected auto-pause past the window end")
	}
	if session.ActiveClipID() != "" {
		t.Errorf("Expected active clip cleared, got %q", session.ActiveClipID())
	}

	// Further playhead updates are inert once the clip is done.
	session.TimeUpdate(40)
	if player.playing {
		t.Error("Expected player to stay paused")
	}
}

func TestSessionUndoDepthOne(t *testing.T) {
	store := newFakeStore()
	session := NewSession(store, &fakePlayer{current: 20}, nil)
	ctx := context.Background()

	first, _ := session.Mark(ctx, ActionSpike)
	second, _ := session.Mark(ctx, ActionSave)

	if err := session.UndoLast(ctx); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != second.ID {
		t.Errorf("Expected undo to delete the last mark %q, got %v", second.ID, store.deleted)
	}

	if err := session.UndoLast(ctx); err != ErrNothingToUndo {
		t.Errorf("Expected ErrNothingToUndo on second undo, got %v", err)
	}
	if got := len(session.Points()); got != 1 {
		t.Fatalf("Expected one point left, got %d", got)
	}
	if session.Points()[0].ID != first.ID {
		t.Errorf("Expected the first mark to survive, got %q", session.Points()[0].ID)
	}
}

func TestSessionDeleteClearsReferences(t *testing.T) {
	store := newFakeStore()
	player := &fakePlayer{current: 20}
	session := NewSession(store, player, nil)
	ctx := context.Background()

	p, _ := session.Mark(ctx, ActionSpike)
	before := 2.0
	session.UpdateOffset(p.ID, &before, nil)
	session.Seek(p.ID)

	if err := session.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if session.SelectedID() != "" {
		t.Error("Expected selection cleared")
	}
	if session.CanUndo() {
		t.Error("Expected undo slot cleared")
	}
	if len(session.DirtyIDs()) != 0 {
		t.Error("Expected dirty flag cleared")
	}
	if session.ActiveClipID() != "" {
		t.Error("Expected active clip cleared")
	}
}

func TestSessionDeleteFailureKeepsPoint(t *testing.T) {
	store := newFakeStore()
	store.failDelete = errors.New("delete failed")
	session := NewSession(store, &fakePlayer{current: 20}, nil)
	ctx := context.Background()

	p, _ := session.Mark(ctx, ActionSpike)
	if err := session.Delete(ctx, p.ID); err == nil {
		t.Fatal("Expected delete to surface the store error")
	}
	if len(session.Points()) != 1 {
		t.Error("Expected the point to survive a failed delete")
	}
	if !session.CanUndo() {
		t.Error("Expected undo slot to survive a failed delete")
	}
}

func TestSessionHandleKey(t *testing.T) {
	t.Run("digit marks with mapped action", func(t *testing.T) {
		store := newFakeStore()
		session := NewSession(store, &fakePlayer{current: 20}, nil)

		handled, err := session.HandleKey(context.Background(), '5')
		if err != nil || !handled {
			t.Fatalf("Expected digit to be handled, got handled=%v err=%v", handled, err)
		}
		want, _ := ActionForDigit(5)
		if store.inserts[0].Action != want {
			t.Errorf("Expected action %q, got %q", want, store.inserts[0].Action)
		}
	})

	t.Run("m marks with selected action", func(t *testing.T) {
		store := newFakeStore()
		session := NewSession(store, &fakePlayer{current: 20}, nil)
		session.SelectAction(ActionPass)

		handled, err := session.HandleKey(context.Background(), 'm')
		if err != nil || !handled {
			t.Fatalf("Expected 'm' to be handled, got handled=%v err=%v", handled, err)
		}
		if store.inserts[0].Action != ActionPass {
			t.Errorf("Expected selected action, got %q", store.inserts[0].Action)
		}
	})

	t.Run("x toggles mute", func(t *testing.T) {
		session := NewSession(newFakeStore(), &fakePlayer{}, nil)
		session.HandleKey(context.Background(), 'x')
		if !session.Muted() {
			t.Error("Expected mute on after first toggle")
		}
		session.HandleKey(context.Background(), 'x')
		if session.Muted() {
			t.Error("Expected mute off after second toggle")
		}
	})

	t.Run("u with nothing marked is a quiet no-op", func(t *testing.T) {
		session := NewSession(newFakeStore(), &fakePlayer{}, nil)
		handled, err := session.HandleKey(context.Background(), 'u')
		if !handled || err != nil {
			t.Errorf("Expected handled no-op, got handled=%v err=%v", handled, err)
		}
	})

	t.Run("suppressed while typing", func(t *testing.T) {
		store := newFakeStore()
		session := NewSession(store, &fakePlayer{current: 20}, nil)
		session.SetInputFocus(true)

		handled, _ := session.HandleKey(context.Background(), 'm')
		if handled {
			t.Error("Expected hotkeys suppressed while an input has focus")
		}
		if len(store.inserts) != 0 {
			t.Error("Expected no mark while an input has focus")
		}

		session.SetInputFocus(false)
		handled, _ = session.HandleKey(context.Background(), 'm')
		if !handled {
			t.Error("Expected hotkeys to resume after focus leaves the input")
		}
	})

	t.Run("unmapped key is ignored", func(t *testing.T) {
		session := NewSession(newFakeStore(), &fakePlayer{}, nil)
		handled, _ := session.HandleKey(context.Background(), 'q')
		if handled {
			t.Error("Expected unmapped key to be unhandled")
		}
	})
}
