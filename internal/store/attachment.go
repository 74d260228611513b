package store

import "github.com/matheus3301/mailmirror/internal/bus"

// CreateAttachment registers an attachment. Temporary attachments get a
// synthesized negative id and are indexed by filename; when the real upload
// for the same filename arrives later, the temporary record is replaced in
// place, including its composer slot.
func (s *Store) CreateAttachment(data AttachmentData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAttachment(data)
}

// InsertAttachment creates the attachment when absent and patches it
// otherwise.
func (s *Store) InsertAttachment(data AttachmentData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAttachment(data)
}

func (s *Store) createAttachment(data AttachmentData) LocalID {
	if data.IsTemporary {
		data.ID = s.nextTempAttachID
		s.nextTempAttachID--
		data.Mimetype = ""
	}
	id := AttachmentID(data.ID)
	if _, ok := s.attachments[id]; ok {
		return id
	}
	a := &Attachment{ID: data.ID, IsTemporary: data.IsTemporary}
	s.attachments[id] = a
	s.applyAttachmentData(a, data)

	if a.IsTemporary {
		s.tempByFilename[a.Filename] = id
	} else if tmpID, ok := s.tempByFilename[a.Filename]; ok {
		if tmp := s.attachments[tmpID]; tmp != nil && tmp.ComposerID != "" {
			s.replaceComposerAttachment(tmp.ComposerID, tmpID, id)
		}
		s.deleteAttachment(tmpID)
	}
	return id
}

func (s *Store) insertAttachment(data AttachmentData) LocalID {
	id := AttachmentID(data.ID)
	a, ok := s.attachments[id]
	if !ok {
		return s.createAttachment(data)
	}
	s.applyAttachmentData(a, data)
	return id
}

func (s *Store) applyAttachmentData(a *Attachment, data AttachmentData) {
	if data.Filename != "" {
		a.Filename = data.Filename
	}
	if data.Name != "" {
		a.Name = data.Name
	}
	if data.Mimetype != "" {
		a.Mimetype = data.Mimetype
	}
	if data.Size != 0 {
		a.Size = data.Size
	}
	if data.Model != "" {
		a.OriginKind = Kind(data.Model)
	}
	if data.ResID != 0 {
		a.OriginID = data.ResID
	}
}

// DeleteAttachment removes an attachment record and detaches it from its
// composer and from every message referencing it.
func (s *Store) DeleteAttachment(id LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAttachment(id)
}

func (s *Store) deleteAttachment(id LocalID) {
	a, ok := s.attachments[id]
	if !ok {
		return
	}
	if a.IsTemporary {
		delete(s.tempByFilename, a.Filename)
	}
	if a.ComposerID != "" {
		if c := s.composers[a.ComposerID]; c != nil {
			c.AttachmentIDs = c.AttachmentIDs.Unlink(id)
		}
	}
	for _, mid := range a.MessageIDs {
		m, ok := s.messages[mid]
		if !ok {
			continue
		}
		for i, ref := range m.AttachmentRefs {
			if AttachmentID(ref.ID) == id {
				m.AttachmentRefs = append(m.AttachmentRefs[:i], m.AttachmentRefs[i+1:]...)
				break
			}
		}
		s.computeMessageDerived(m)
		s.notify(bus.KindMessageUpdated, mid)
	}
	delete(s.attachments, id)
	s.notify(bus.KindAttachmentDeleted, id)
}

func (s *Store) linkMessageToAttachment(msgID, attID LocalID) {
	a, ok := s.attachments[attID]
	if !ok {
		return
	}
	a.MessageIDs = a.MessageIDs.Link(msgID)
}
