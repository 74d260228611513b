package store

import "github.com/matheus3301/mailmirror/internal/bus"

// InsertPartner creates the partner when absent and patches it otherwise.
func (s *Store) InsertPartner(data PartnerData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPartner(data)
}

func (s *Store) insertPartner(data PartnerData) LocalID {
	id := PartnerID(data.ID)
	p, ok := s.partners[id]
	if !ok {
		p = &Partner{ID: data.ID}
		s.partners[id] = p
	}
	s.applyPartnerData(p, data)
	s.notify(bus.KindPartnerUpdated, id)
	return id
}

// applyPartnerData merges the present fields of a payload into a partner.
// Absent fields leave the existing values untouched.
func (s *Store) applyPartnerData(p *Partner, data PartnerData) {
	if data.Name != "" {
		p.Name = data.Name
	}
	if data.DisplayName != "" {
		p.DisplayName = data.DisplayName
	}
	if data.Email != "" {
		p.Email = data.Email
	}
	if data.IMStatus != "" {
		p.IMStatus = data.IMStatus
	}
	if data.UserID != nil {
		p.UserID = *data.UserID
		p.UserChecked = true
	}
}

// SetPartnerUser records the outcome of a user lookup for a partner. A zero
// userID means the partner has no attached user account; either way the
// partner is marked as checked so the lookup is not repeated.
func (s *Store) SetPartnerUser(id LocalID, userID float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return
	}
	p.UserID = userID
	p.UserChecked = true
	s.notify(bus.KindPartnerUpdated, id)
}

func (s *Store) linkMessageToAuthor(msgID, partnerID LocalID) {
	p, ok := s.partners[partnerID]
	if !ok {
		return
	}
	p.AuthorMessageIDs = p.AuthorMessageIDs.Link(msgID)
}

func (s *Store) unlinkMessageFromAuthor(msgID, partnerID LocalID) {
	p, ok := s.partners[partnerID]
	if !ok {
		return
	}
	p.AuthorMessageIDs = p.AuthorMessageIDs.Unlink(msgID)
}
