package store

import (
	"github.com/matheus3301/mailmirror/internal/bus"
	"github.com/matheus3301/mailmirror/internal/layout"
)

// Window open modes: where a newly opened window lands in the dock.
const (
	// WindowModeLast appends the window at the end of the dock, possibly
	// into the hidden menu.
	WindowModeLast = "last"
	// WindowModeLastVisible appends and then swaps the window into the
	// last visible slot.
	WindowModeLastVisible = "last_visible"
)

// WindowManager holds the dock slot list and its computed arrangement. The
// arrangement is never edited directly; it is recomputed from the slot list
// and the viewport after every change.
type WindowManager struct {
	Slots    IDSet
	Computed layout.Result[LocalID]

	// AutofocusSlot and AutofocusCounter tell the UI which window should
	// grab focus; bumping the counter re-triggers focus on the same slot.
	AutofocusSlot    LocalID
	AutofocusCounter int
}

// Windows returns the current dock arrangement.
func (s *Store) Windows() layout.Result[LocalID] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Computed
}

// WindowSlots returns the full dock slot list, hidden slots included.
func (s *Store) WindowSlots() IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Slots.Clone()
}

// AutofocusWindow returns the slot that should hold focus and the counter
// that distinguishes repeated focus requests on the same slot.
func (s *Store) AutofocusWindow() (LocalID, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.AutofocusSlot, s.windows.AutofocusCounter
}

// DiscussState returns a copy of the discuss panel state.
func (s *Store) DiscussState() Discuss {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discuss
}

// OpenThread routes a "view this conversation" request: to the discuss
// panel when it is open (or when a mailbox is viewed on mobile), otherwise
// to a docked chat window.
func (s *Store) OpenThread(id LocalID, mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return
	}
	if (!s.viewport.IsMobile && s.discuss.IsOpen) || (s.viewport.IsMobile && t.Kind == KindMailbox) {
		s.discuss.ActiveThreadID = id
		s.notify(bus.KindThreadUpdated, id)
		return
	}
	s.openThreadWindow(id, mode)
}

// OpenNewMessageWindow docks the partner-picker window.
func (s *Store) OpenNewMessageWindow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openSlot(SlotNewMessage, WindowModeLastVisible)
}

// CloseChatWindow removes a slot from the dock. For thread slots the thread
// is un-minimized and folded closed.
func (s *Store) CloseChatWindow(slot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeWindow(slot)
}

// CloseAllChatWindows empties the dock.
func (s *Store) CloseAllChatWindows() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.windows.Slots.Clone() {
		s.closeWindow(slot)
	}
}

// MakeWindowVisible swaps a hidden slot into the last visible position.
func (s *Store) MakeWindowVisible(slot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.makeWindowVisible(slot)
}

// SwapChatWindows exchanges the dock positions of two slots.
func (s *Store) SwapChatWindows(a, b LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapWindows(a, b)
}

// ShiftWindowLeft moves a slot one visible position toward the docking
// edge, ShiftWindowRight the other way.
func (s *Store) ShiftWindowLeft(slot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.windows.Slots.IndexOf(slot)
	if i < 0 || i == len(s.windows.Slots)-1 {
		return
	}
	s.swapWindows(slot, s.windows.Slots[i+1])
}

// ShiftWindowRight moves a slot one position away from the docking edge.
func (s *Store) ShiftWindowRight(slot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.windows.Slots.IndexOf(slot)
	if i <= 0 {
		return
	}
	s.swapWindows(slot, s.windows.Slots[i-1])
}

// ReplaceChatWindow substitutes one slot for another in place, used when
// the partner-picker window resolves into an actual chat.
func (s *Store) ReplaceChatWindow(oldSlot, newSlot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.windows.Slots.IndexOf(oldSlot)
	if i < 0 {
		return
	}
	if s.windows.Slots.Contains(newSlot) {
		s.closeWindowSlotOnly(oldSlot)
		s.makeWindowVisible(newSlot)
		return
	}
	s.windows.Slots[i] = newSlot
	if t, ok := s.threads[newSlot]; ok {
		t.IsMinimized = true
		t.FoldState = FoldOpen
		s.notify(bus.KindThreadUpdated, newSlot)
	}
	s.computeWindows()
	s.focusWindow(newSlot)
}

// FocusWindow asks the UI to focus a visible window.
func (s *Store) FocusWindow(slot LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusWindow(slot)
}

// SetViewport records new host window geometry and recomputes the dock.
func (s *Store) SetViewport(width, height int, mobile bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = Viewport{Width: width, Height: height, IsMobile: mobile}
	s.computeWindows()
}

// OpenDiscuss opens the full-screen panel on the given thread. On
// non-mobile this removes the dock entirely until the panel closes.
func (s *Store) OpenDiscuss(threadID LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discuss.IsOpen = true
	if !threadID.IsZero() {
		s.discuss.ActiveThreadID = threadID
	}
	s.computeWindows()
}

// CloseDiscuss closes the panel and restores the dock.
func (s *Store) CloseDiscuss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discuss.IsOpen = false
	s.computeWindows()
}

// SetDiscussFilter replaces the discuss panel's active mailbox filter.
func (s *Store) SetDiscussFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discuss.Filter = f
}

func (s *Store) openThreadWindow(id LocalID, mode string) {
	s.openSlot(id, mode)
	if t, ok := s.threads[id]; ok && t.FoldState != FoldOpen {
		t.FoldState = FoldOpen
		s.notify(bus.KindThreadUpdated, id)
	}
}

func (s *Store) openSlot(id LocalID, mode string) {
	w := &s.windows
	if w.Slots.Contains(id) {
		if mode == WindowModeLastVisible && w.Computed.IsHidden(id) {
			s.makeWindowVisible(id)
		}
	} else {
		w.Slots = append(w.Slots, id)
		if t, ok := s.threads[id]; ok && !t.IsMinimized {
			// the slot is already registered, so this does not loop back
			t.IsMinimized = true
			s.notify(bus.KindThreadUpdated, id)
		}
		s.computeWindows()
		if mode == WindowModeLastVisible && w.Computed.IsHidden(id) {
			s.makeWindowVisible(id)
		}
	}
	s.focusWindow(id)
}

func (s *Store) closeWindow(slot LocalID) {
	s.closeWindowSlotOnly(slot)
	if t, ok := s.threads[slot]; ok && t.IsMinimized {
		t.IsMinimized = false
		t.FoldState = FoldClosed
		s.notify(bus.KindThreadUpdated, slot)
	}
}

func (s *Store) closeWindowSlotOnly(slot LocalID) {
	w := &s.windows
	if !w.Slots.Contains(slot) {
		return
	}
	w.Slots = w.Slots.Unlink(slot)
	if w.AutofocusSlot == slot {
		w.AutofocusSlot = LocalID{}
	}
	s.computeWindows()
}

func (s *Store) makeWindowVisible(slot LocalID) {
	visible := s.windows.Computed.Visible
	if len(visible) == 0 {
		return
	}
	last := visible[len(visible)-1].ID
	if last == slot {
		s.focusWindow(slot)
		return
	}
	s.swapWindows(slot, last)
	if t, ok := s.threads[slot]; ok && t.FoldState != FoldOpen {
		t.FoldState = FoldOpen
		s.notify(bus.KindThreadUpdated, slot)
	}
	s.focusWindow(slot)
}

func (s *Store) swapWindows(a, b LocalID) {
	i := s.windows.Slots.IndexOf(a)
	j := s.windows.Slots.IndexOf(b)
	if i < 0 || j < 0 || i == j {
		return
	}
	s.windows.Slots[i], s.windows.Slots[j] = s.windows.Slots[j], s.windows.Slots[i]
	s.computeWindows()
}

func (s *Store) focusWindow(slot LocalID) {
	if !s.windows.Computed.IsVisible(slot) {
		return
	}
	s.windows.AutofocusSlot = slot
	s.windows.AutofocusCounter++
}

// computeWindows rebuilds the dock arrangement. An open discuss panel on
// non-mobile suppresses docking entirely.
func (s *Store) computeWindows() {
	if !s.viewport.IsMobile && s.discuss.IsOpen {
		s.windows.Computed = layout.Result[LocalID]{}
	} else {
		s.windows.Computed = layout.Compute(s.windows.Slots, s.viewport.Width, s.viewport.IsMobile)
	}
	s.notify(bus.KindWindowsComputed, s.windows.Computed)
}
