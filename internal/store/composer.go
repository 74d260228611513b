package store

import "github.com/google/uuid"

// CreateComposer registers a new draft and returns its id.
func (s *Store) CreateComposer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.composers[id] = &Composer{ID: id}
	return id
}

// UpdateComposerText replaces the draft text.
func (s *Store) UpdateComposerText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.composers[id]
	if !ok {
		return
	}
	c.Text = text
}

// LinkAttachmentToComposer attaches an uploaded or uploading file to a
// draft. The attachment records which composer holds it.
func (s *Store) LinkAttachmentToComposer(composerID string, attID LocalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.composers[composerID]
	if !ok {
		return
	}
	a, ok := s.attachments[attID]
	if !ok {
		return
	}
	c.AttachmentIDs = c.AttachmentIDs.Link(attID)
	a.ComposerID = composerID
}

// UnlinkComposerAttachments detaches every attachment from a draft without
// deleting the attachment records.
func (s *Store) UnlinkComposerAttachments(composerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlinkComposerAttachments(composerID)
}

func (s *Store) unlinkComposerAttachments(composerID string) {
	c, ok := s.composers[composerID]
	if !ok {
		return
	}
	for _, attID := range c.AttachmentIDs {
		if a, ok := s.attachments[attID]; ok && a.ComposerID == composerID {
			a.ComposerID = ""
		}
	}
	c.AttachmentIDs = nil
}

// DeleteComposer detaches the draft's attachments and removes the draft.
func (s *Store) DeleteComposer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlinkComposerAttachments(id)
	delete(s.composers, id)
}

// replaceComposerAttachment swaps a temporary attachment for its uploaded
// replacement in place, preserving the draft's attachment order.
func (s *Store) replaceComposerAttachment(composerID string, oldID, newID LocalID) {
	c, ok := s.composers[composerID]
	if !ok {
		return
	}
	for i, attID := range c.AttachmentIDs {
		if attID == oldID {
			c.AttachmentIDs[i] = newID
			if a := s.attachments[newID]; a != nil {
				a.ComposerID = composerID
			}
			return
		}
	}
}
