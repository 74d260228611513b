// Package layout computes the docked chat-window arrangement: given an
// ordered slot list and a viewport, it decides which slots get a visible
// fixed-width window, which overflow into the hidden menu, and at what
// pixel offsets everything sits. The computation is pure; callers re-run it
// whenever the slot list or the viewport changes.
package layout

// Pixel constants of the docking bar.
const (
	WindowWidth     = 325
	BetweenGapWidth = 5
	StartGapWidth   = 10
	EndGapWidth     = 10
	HiddenMenuWidth = 200
)

// Slot is a visible window with its offset from the docking edge.
type Slot[T any] struct {
	ID     T
	Offset int
}

// Result is the computed arrangement.
type Result[T comparable] struct {
	Visible           []Slot[T]
	Hidden            []T
	HiddenMenuVisible bool
	HiddenMenuOffset  int

	// AvailableSlots is how many windows the viewport can hold in the
	// current arrangement, used to pick a drop position for a new window.
	AvailableSlots int
}

// VisibleIDs returns the ids of the visible slots in dock order.
func (r Result[T]) VisibleIDs() []T {
	ids := make([]T, len(r.Visible))
	for i, s := range r.Visible {
		ids[i] = s.ID
	}
	return ids
}

// IsVisible reports whether id holds a visible slot.
func (r Result[T]) IsVisible(id T) bool {
	for _, s := range r.Visible {
		if s.ID == id {
			return true
		}
	}
	return false
}

// IsHidden reports whether id sits in the hidden menu.
func (r Result[T]) IsHidden(id T) bool {
	for _, h := range r.Hidden {
		if h == id {
			return true
		}
	}
	return false
}

// Compute arranges slots for a viewport of the given width. Mobile devices
// always show exactly one slot and drop the edge gaps.
func Compute[T comparable](slots []T, width int, mobile bool) Result[T] {
	startGap, endGap := StartGapWidth, EndGapWidth
	if mobile {
		startGap, endGap = 0, 0
	}

	maxWithoutHidden := (width - startGap - endGap) / (WindowWidth + BetweenGapWidth)
	maxWithHidden := (width - startGap - HiddenMenuWidth - BetweenGapWidth - endGap) /
		(WindowWidth + BetweenGapWidth)
	if mobile {
		maxWithoutHidden = 1
		maxWithHidden = 1
	}
	if maxWithoutHidden < 0 {
		maxWithoutHidden = 0
	}
	if maxWithHidden < 0 {
		maxWithHidden = 0
	}

	var res Result[T]
	switch {
	case len(slots) <= maxWithoutHidden:
		res.AvailableSlots = maxWithoutHidden
		res.Visible = offsets(slots, startGap)
	case maxWithHidden > 0:
		res.AvailableSlots = maxWithHidden
		res.Visible = offsets(slots[:maxWithHidden], startGap)
		res.Hidden = append(res.Hidden, slots[maxWithHidden:]...)
		res.HiddenMenuVisible = true
		res.HiddenMenuOffset = startGap + maxWithHidden*(WindowWidth+BetweenGapWidth)
	default:
		// viewport too narrow for even one window next to the menu
		res.AvailableSlots = maxWithHidden
		res.Hidden = append(res.Hidden, slots...)
		res.HiddenMenuVisible = len(slots) > 0
		res.HiddenMenuOffset = startGap
	}
	return res
}

func offsets[T comparable](slots []T, startGap int) []Slot[T] {
	out := make([]Slot[T], len(slots))
	for i, id := range slots {
		out[i] = Slot[T]{ID: id, Offset: startGap + i*(WindowWidth+BetweenGapWidth)}
	}
	return out
}
