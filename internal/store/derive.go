package store

import "slices"

// The compute*Derived functions are the relationship maintainers: each one
// recomputes every derived field of an entity from its primary fields and
// the current store snapshot, never from other derived fields. They never
// fail; callers reconcile reverse links separately when a derived value
// changed.

func containsFloat(ids []float64, id float64) bool {
	return slices.Contains(ids, id)
}

// computeMessageDerived recomputes the thread membership of a message: the
// channels it was posted to, the inbox/starred/history mailboxes when the
// current partner is in the matching partner list, and the origin document
// thread when the message carries a model+record reference.
func (s *Store) computeMessageDerived(m *Message) {
	current := s.currentPartnerID.ID

	threadIDs := make(IDSet, 0, len(m.ChannelIDs)+4)
	for _, cid := range m.ChannelIDs {
		threadIDs = threadIDs.Link(ChannelID(cid))
	}
	if !s.currentPartnerID.IsZero() {
		if containsFloat(m.NeedactionPartnerIDs, current) {
			threadIDs = threadIDs.Link(InboxID)
		}
		if containsFloat(m.StarredPartnerIDs, current) {
			threadIDs = threadIDs.Link(StarredID)
		}
		if containsFloat(m.HistoryPartnerIDs, current) {
			threadIDs = threadIDs.Link(HistoryID)
		}
	}

	m.OriginThread = LocalID{}
	if m.OriginKind != "" && m.OriginID != 0 {
		m.OriginThread = LocalID{Kind: m.OriginKind, ID: m.OriginID}
		threadIDs = threadIDs.Link(m.OriginThread)
	}
	m.ThreadIDs = threadIDs

	m.AuthorID = LocalID{}
	if m.AuthorRef.Valid {
		m.AuthorID = PartnerID(m.AuthorRef.ID)
	}

	attachIDs := make(IDSet, 0, len(m.AttachmentRefs))
	for _, ref := range m.AttachmentRefs {
		attachIDs = attachIDs.Link(AttachmentID(ref.ID))
	}
	m.AttachmentIDs = attachIDs
}

// computeThreadDerived recomputes member links from the raw member list.
func computeThreadDerived(t *Thread) {
	members := make(IDSet, 0, len(t.rawMemberIDs))
	for _, id := range t.rawMemberIDs {
		members = members.Link(PartnerID(id))
	}
	t.MemberIDs = members

	t.DirectPartnerID = LocalID{}
	if t.rawDirectID != 0 {
		t.DirectPartnerID = PartnerID(t.rawDirectID)
	}

	if t.CacheKeys == nil {
		t.CacheKeys = make(map[string]CacheKey)
	}
}

// computeCacheDerived normalizes the loading flags: a loaded cache is by
// definition no longer loading.
func computeCacheDerived(c *ThreadCache) {
	if c.IsLoaded {
		c.IsLoading = false
	}
}
