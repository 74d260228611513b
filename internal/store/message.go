package store

import "github.com/matheus3301/mailmirror/internal/bus"

// CreateMessage registers a new message and runs its full link cascade:
// the author partner, the origin document thread, every derived thread
// membership, and every attachment. An already known id is left untouched.
func (s *Store) CreateMessage(data MessageData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createMessage(data)
}

// InsertMessage creates the message when absent and patches it otherwise,
// reconciling links that the patch changed.
func (s *Store) InsertMessage(data MessageData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMessage(data)
}

// UpdateMessage patches an existing message. Unknown ids are ignored.
func (s *Store) UpdateMessage(id LocalID, data MessageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateMessage(id, data)
}

func (s *Store) createMessage(data MessageData) LocalID {
	id := MessageID(data.ID)
	if _, ok := s.messages[id]; ok {
		s.log.Warn("message already exists, skipping create")
		return id
	}
	m := &Message{ID: data.ID}
	s.messages[id] = m
	s.applyMessageData(m, data)
	s.computeMessageDerived(m)

	if m.AuthorRef.Valid {
		pid := s.insertPartner(PartnerData{ID: m.AuthorRef.ID, DisplayName: m.AuthorRef.Name})
		s.linkMessageToAuthor(id, pid)
	}
	if !m.OriginThread.IsZero() {
		s.insertThread(ThreadData{Model: string(m.OriginKind), ID: m.OriginID})
		if m.RecordName != "" {
			s.updateThread(m.OriginThread, ThreadData{Name: m.RecordName})
		}
	}
	for _, tid := range m.ThreadIDs {
		if _, ok := s.threads[tid]; !ok {
			s.createThread(ThreadData{Model: string(tid.Kind), ID: tid.ID})
		}
		s.linkMessageToThread(id, tid)
	}
	for _, ref := range m.AttachmentRefs {
		aid := s.insertAttachment(ref)
		s.linkMessageToAttachment(id, aid)
	}
	s.notify(bus.KindMessageInserted, id)
	return id
}

func (s *Store) insertMessage(data MessageData) LocalID {
	id := MessageID(data.ID)
	if _, ok := s.messages[id]; !ok {
		return s.createMessage(data)
	}
	s.updateMessage(id, data)
	return id
}

func (s *Store) updateMessage(id LocalID, data MessageData) {
	m, ok := s.messages[id]
	if !ok {
		return
	}
	prevAuthor := m.AuthorID
	prevThreads := m.ThreadIDs.Clone()

	s.applyMessageData(m, data)
	s.computeMessageDerived(m)

	if m.AuthorRef.Valid {
		s.insertPartner(PartnerData{ID: m.AuthorRef.ID, DisplayName: m.AuthorRef.Name})
	}
	s.reconcileMessageLinks(id, m, prevAuthor, prevThreads)
	s.notify(bus.KindMessageUpdated, id)
}

// applyMessageData merges present payload fields into a message. Nil slices
// mean the field was absent from the payload.
func (s *Store) applyMessageData(m *Message, data MessageData) {
	if data.Subject != "" {
		m.Subject = data.Subject
	}
	if data.Body != "" {
		m.Body = data.Body
	}
	if !data.Date.Time.IsZero() {
		m.Date = data.Date.Time
	}
	if data.Type != "" {
		m.Type = data.Type
	}
	if data.Author.Valid {
		m.AuthorRef = data.Author
	}
	if data.ChannelIDs != nil {
		m.ChannelIDs = data.ChannelIDs
	}
	if data.NeedactionPartnerIDs != nil {
		m.NeedactionPartnerIDs = data.NeedactionPartnerIDs
	}
	if data.StarredPartnerIDs != nil {
		m.StarredPartnerIDs = data.StarredPartnerIDs
	}
	if data.HistoryPartnerIDs != nil {
		m.HistoryPartnerIDs = data.HistoryPartnerIDs
	}
	if data.Attachments != nil {
		m.AttachmentRefs = data.Attachments
	}
	if data.Model != "" {
		m.OriginKind = Kind(data.Model)
	}
	if data.ResID != 0 {
		m.OriginID = data.ResID
	}
	if data.RecordName != "" {
		m.RecordName = data.RecordName
	}
	if data.IsTransient {
		m.IsTransient = true
	}
}

// reconcileMessageLinks diffs the derived author and thread memberships of a
// message against their previous values and fixes the reverse links on both
// sides. Threads that appear in the new membership are created on demand.
func (s *Store) reconcileMessageLinks(id LocalID, m *Message, prevAuthor LocalID, prevThreads IDSet) {
	if prevAuthor != m.AuthorID {
		if !prevAuthor.IsZero() {
			s.unlinkMessageFromAuthor(id, prevAuthor)
		}
		if !m.AuthorID.IsZero() {
			s.linkMessageToAuthor(id, m.AuthorID)
		}
	}
	for _, tid := range prevThreads {
		if !m.ThreadIDs.Contains(tid) {
			s.unlinkMessageFromThread(id, tid)
		}
	}
	for _, tid := range m.ThreadIDs {
		if prevThreads.Contains(tid) {
			continue
		}
		if _, ok := s.threads[tid]; !ok {
			s.createThread(ThreadData{Model: string(tid.Kind), ID: tid.ID})
		}
		s.linkMessageToThread(id, tid)
	}
}

// DeleteMessage removes a message record and every link pointing at it.
func (s *Store) DeleteMessage(id LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteMessage(id)
}

func (s *Store) deleteMessage(id LocalID) {
	m, ok := s.messages[id]
	if !ok {
		return
	}
	for _, tid := range m.ThreadIDs.Clone() {
		s.unlinkMessageFromThread(id, tid)
	}
	if !m.AuthorID.IsZero() {
		s.unlinkMessageFromAuthor(id, m.AuthorID)
	}
	for _, aid := range m.AttachmentIDs {
		if a, ok := s.attachments[aid]; ok {
			a.MessageIDs = a.MessageIDs.Unlink(id)
		}
	}
	delete(s.messages, id)
	s.notify(bus.KindMessageDeleted, id)
}
