package store

import "github.com/matheus3301/mailmirror/internal/bus"

// CreateThread registers a new conversation. When a thread with the same
// identity already exists it is returned untouched; use InsertThread for the
// create-or-patch behavior.
func (s *Store) CreateThread(data ThreadData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createThread(data)
}

// InsertThread creates the thread when absent and patches it otherwise.
func (s *Store) InsertThread(data ThreadData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertThread(data)
}

// UpdateThread patches an existing thread. Unknown ids are ignored.
func (s *Store) UpdateThread(id LocalID, data ThreadData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateThread(id, data)
}

func (s *Store) createThread(data ThreadData) LocalID {
	kind := data.ThreadKind()
	id := LocalID{Kind: kind, ID: data.ID}
	if _, ok := s.threads[id]; ok {
		return id
	}

	t := &Thread{
		Kind:      kind,
		ID:        data.ID,
		IsPinned:  true,
		CacheKeys: make(map[string]CacheKey),
	}
	s.threads[id] = t
	s.applyThreadData(t, data)
	computeThreadDerived(t)

	// every thread carries an all-messages cache from birth
	s.createThreadCache(id, nil)

	for _, member := range data.Members {
		s.insertPartner(member)
	}
	if len(data.DirectPartner) > 0 {
		s.insertPartner(data.DirectPartner[0])
	}
	if t.IsMinimized {
		s.openThreadWindow(id, WindowModeLast)
	}
	s.notify(bus.KindThreadInserted, id)
	return id
}

func (s *Store) insertThread(data ThreadData) LocalID {
	id := LocalID{Kind: data.ThreadKind(), ID: data.ID}
	if _, ok := s.threads[id]; !ok {
		return s.createThread(data)
	}
	s.updateThread(id, data)
	return id
}

func (s *Store) updateThread(id LocalID, data ThreadData) {
	t, ok := s.threads[id]
	if !ok {
		return
	}
	wasMinimized := t.IsMinimized
	s.applyThreadData(t, data)
	computeThreadDerived(t)

	// minimized state drives dock membership, in both directions
	if !wasMinimized && t.IsMinimized && !s.windows.Slots.Contains(id) {
		s.openThreadWindow(id, WindowModeLast)
	}
	if wasMinimized && !t.IsMinimized && s.windows.Slots.Contains(id) {
		s.closeWindow(id)
	}
	s.notify(bus.KindThreadUpdated, id)
}

// applyThreadData merges present payload fields into a thread. Pointer
// fields distinguish absent from zero.
func (s *Store) applyThreadData(t *Thread, data ThreadData) {
	if data.Name != "" {
		t.Name = data.Name
	}
	if data.ChannelType != "" {
		t.ChannelType = data.ChannelType
	}
	if data.FoldState != "" {
		t.FoldState = data.FoldState
	}
	if data.IsMinimized != nil {
		t.IsMinimized = *data.IsMinimized
	}
	if data.IsPinned != nil {
		t.IsPinned = *data.IsPinned
	}
	if data.Counter != nil {
		t.Counter = *data.Counter
	}
	if data.UnreadCount != nil {
		t.UnreadCount = *data.UnreadCount
	}
	if data.NeedactionCount != nil {
		t.NeedactionCount = *data.NeedactionCount
	}
	if data.SeenMessageID != nil {
		t.SeenMessageID = *data.SeenMessageID
	}
	if data.CustomName != nil {
		t.CustomName = *data.CustomName
	}
	if data.UUID != "" {
		t.UUID = data.UUID
	}
	if data.Members != nil {
		ids := make([]float64, 0, len(data.Members))
		for _, m := range data.Members {
			ids = append(ids, m.ID)
		}
		t.rawMemberIDs = ids
	}
	if len(data.DirectPartner) > 0 {
		t.rawDirectID = data.DirectPartner[0].ID
	}
}

// UnpinThread drops a conversation from the pinned channel list without
// forgetting its record.
func (s *Store) UnpinThread(id LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.IsPinned = false
	if s.windows.Slots.Contains(id) {
		s.closeWindow(id)
	}
	s.notify(bus.KindThreadUpdated, id)
}

// RenameThreadLocal records a custom display name for a direct chat.
func (s *Store) RenameThreadLocal(id LocalID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.CustomName = name
	s.notify(bus.KindThreadUpdated, id)
}

// MarkThreadSeenLocal zeroes the unread counter and advances the seen
// watermark. A zero lastMessageID leaves the watermark alone.
func (s *Store) MarkThreadSeenLocal(id LocalID, lastMessageID float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.UnreadCount = 0
	if lastMessageID > 0 {
		t.SeenMessageID = lastMessageID
	}
	s.notify(bus.KindThreadUpdated, id)
}

// SetDocumentMessageIDs pins the explicit message id list of a document
// thread. When the list changed, the default cache is reset so the next view
// triggers a fresh load.
func (s *Store) SetDocumentMessageIDs(id LocalID, messageIDs []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return
	}
	if floatsEqual(t.ExplicitMessageIDs, messageIDs) {
		return
	}
	t.ExplicitMessageIDs = append([]float64(nil), messageIDs...)
	if key, ok := t.CacheKeys[EmptyFilterKey]; ok {
		if c := s.caches[key]; c != nil {
			c.IsLoaded = false
			c.IsLoading = false
			s.notify(bus.KindCacheUpdated, key)
		}
	}
	s.notify(bus.KindThreadUpdated, id)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Store) linkMessageToThread(msgID, threadID LocalID) {
	t, ok := s.threads[threadID]
	if !ok {
		return
	}
	if t.MessageIDs.Contains(msgID) {
		return
	}
	t.MessageIDs = t.MessageIDs.LinkOrdered(msgID)
}

// unlinkMessageFromThread removes a message from a thread and from every
// cache of that thread.
func (s *Store) unlinkMessageFromThread(msgID, threadID LocalID) {
	t, ok := s.threads[threadID]
	if !ok {
		return
	}
	if !t.MessageIDs.Contains(msgID) {
		return
	}
	for _, key := range t.CacheKeys {
		s.unlinkMessageFromCache(msgID, key)
	}
	t.MessageIDs = t.MessageIDs.Unlink(msgID)
}
