package editor

import "github.com/catxpapa/catxframeup/pkg/decoration"

// PointerKind is the phase of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return "unknown"
}

// PointerEvent is a pointer event in canvas pixels.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

// Transition is the outcome of one pointer event.
type Transition struct {
	// Drag is the drag session after the event; nil when none is active.
	Drag *decoration.DragSession

	// Select is set when the selection should become SelectedID.
	Select     bool
	SelectedID string

	// Move is set when TargetID should move to (X, Y).
	Move     bool
	TargetID string
	X, Y     float64
}

// Reduce computes how snap and the current drag session react to ev. It
// has no side effects.
//
// Outside decoration mode every event is ignored. A down over a decoration
// selects the topmost one and starts dragging it; a down elsewhere clears
// the selection. A move only affects the captured target, and an up ends
// the session.
func Reduce(snap Snapshot, drag *decoration.DragSession, ev PointerEvent) Transition {
	if snap.Mode != ModeDecoration {
		return Transition{Drag: drag}
	}
	w, h := float64(snap.Canvas.X), float64(snap.Canvas.Y)

	switch ev.Kind {
	case PointerDown:
		id, ok := decoration.HitTest(snap.Decorations, ev.X, ev.Y, w, h)
		if !ok {
			return Transition{Select: true}
		}
		d, _ := snap.Decoration(id)
		session := decoration.BeginDrag(d, ev.X, ev.Y)
		return Transition{Drag: &session, Select: true, SelectedID: id}

	case PointerMove:
		if drag == nil {
			return Transition{}
		}
		if _, ok := snap.Decoration(drag.TargetID); !ok {
			return Transition{}
		}
		x, y := drag.Move(ev.X, ev.Y, w, h)
		return Transition{Drag: drag, Move: true, TargetID: drag.TargetID, X: x, Y: y}

	case PointerUp:
		return Transition{}
	}
	return Transition{Drag: drag}
}
