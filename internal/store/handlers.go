package store

import (
	"slices"

	"github.com/matheus3301/mailmirror/internal/bus"
)

// HandleNeedaction folds a "message needs your attention" push into the
// store: the message is inserted, the inbox counter grows, and channels the
// message targets see their needaction counter grow as well.
func (s *Store) HandleNeedaction(data MessageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.insertMessage(data)
	m, ok := s.messages[id]
	if !ok {
		return
	}
	if inbox, ok := s.threads[InboxID]; ok {
		inbox.Counter++
		s.notify(bus.KindThreadUpdated, InboxID)
	}
	for _, tid := range m.ThreadIDs {
		t, ok := s.threads[tid]
		if !ok || tid.Kind != KindChannel {
			continue
		}
		t.NeedactionCount++
		if key, ok := t.CacheKeys[EmptyFilterKey]; ok {
			s.linkMessageToCache(id, key)
		}
		s.notify(bus.KindThreadUpdated, tid)
	}
}

// HandleMarkAsRead folds a mark-as-read push: each known message moves from
// the needaction list to the history list, which relinks it from the inbox
// to the history mailbox. Unknown ids are skipped. The inbox counter drops
// by the number of messages actually moved and channel needaction counters
// reset.
func (s *Store) HandleMarkAsRead(messageIDs []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.currentPartnerID.ID
	moved := 0
	for _, rawID := range messageIDs {
		id := MessageID(rawID)
		m, ok := s.messages[id]
		if !ok {
			continue
		}
		if !containsFloat(m.NeedactionPartnerIDs, current) {
			continue
		}
		prevThreads := m.ThreadIDs.Clone()
		m.NeedactionPartnerIDs = removeFloat(m.NeedactionPartnerIDs, current)
		if !containsFloat(m.HistoryPartnerIDs, current) {
			m.HistoryPartnerIDs = append(m.HistoryPartnerIDs, current)
		}
		s.computeMessageDerived(m)
		s.reconcileMessageLinks(id, m, m.AuthorID, prevThreads)
		if history, ok := s.threads[HistoryID]; ok {
			if key, ok := history.CacheKeys[EmptyFilterKey]; ok {
				s.linkMessageToCache(id, key)
			}
		}
		moved++
		s.notify(bus.KindMessageUpdated, id)
	}
	if moved == 0 {
		return
	}
	if inbox, ok := s.threads[InboxID]; ok {
		inbox.Counter -= moved
		if inbox.Counter < 0 {
			inbox.Counter = 0
		}
		s.notify(bus.KindThreadUpdated, InboxID)
	}
	for id, t := range s.threads {
		if id.Kind == KindChannel && t.NeedactionCount != 0 {
			t.NeedactionCount = 0
			s.notify(bus.KindThreadUpdated, id)
		}
	}
}

// HandleToggleStar folds a star-toggle push for a batch of message ids.
// Unknown messages and already-matching states are skipped; the starred
// mailbox counter moves only for messages whose state actually changed.
func (s *Store) HandleToggleStar(messageIDs []float64, starred bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.currentPartnerID.ID
	changed := 0
	for _, rawID := range messageIDs {
		id := MessageID(rawID)
		m, ok := s.messages[id]
		if !ok {
			continue
		}
		has := containsFloat(m.StarredPartnerIDs, current)
		if has == starred {
			continue
		}
		prevThreads := m.ThreadIDs.Clone()
		if starred {
			m.StarredPartnerIDs = append(m.StarredPartnerIDs, current)
		} else {
			m.StarredPartnerIDs = removeFloat(m.StarredPartnerIDs, current)
		}
		s.computeMessageDerived(m)
		s.reconcileMessageLinks(id, m, m.AuthorID, prevThreads)
		if starred {
			if starredBox, ok := s.threads[StarredID]; ok {
				if key, ok := starredBox.CacheKeys[EmptyFilterKey]; ok {
					s.linkMessageToCache(id, key)
				}
			}
		}
		changed++
		s.notify(bus.KindMessageUpdated, id)
	}
	if changed == 0 {
		return
	}
	if starredBox, ok := s.threads[StarredID]; ok {
		if starred {
			starredBox.Counter += changed
		} else {
			starredBox.Counter -= changed
			if starredBox.Counter < 0 {
				starredBox.Counter = 0
			}
		}
		s.notify(bus.KindThreadUpdated, StarredID)
	}
}

// HandleTransientMessage synthesizes a local-only system message, typically
// a command response. It is authored by the bot partner and placed just
// after the highest known message id so it sorts last; the fractional id
// can never collide with a server id.
func (s *Store) HandleTransientMessage(threadID LocalID, data MessageData) LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var maxID float64
	for id := range s.messages {
		if id.ID > maxID {
			maxID = id.ID
		}
	}
	data.ID = maxID + 0.01
	data.Author = PartnerRef{ID: BotPartnerID, Valid: true}
	data.IsTransient = true
	if !threadID.IsZero() {
		data.Model = string(threadID.Kind)
		data.ResID = threadID.ID
	}
	id := s.createMessage(data)
	if t, ok := s.threads[threadID]; ok {
		if key, ok := t.CacheKeys[EmptyFilterKey]; ok {
			s.linkMessageToCache(id, key)
		}
	}
	return id
}

// HandleChannelMessage folds a channel post push. The message lands in the
// channel's default cache; posts by someone else bump the channel's unread
// counter. The return value reports whether the current partner authored
// the message, so callers can mark the channel seen.
func (s *Store) HandleChannelMessage(channelID float64, data MessageData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !containsFloat(data.ChannelIDs, channelID) {
		data.ChannelIDs = append(data.ChannelIDs, channelID)
	}
	id := s.insertMessage(data)
	m, ok := s.messages[id]
	if !ok {
		return false
	}
	for _, tid := range m.ThreadIDs {
		if tid.Kind != KindChannel {
			continue
		}
		if t, ok := s.threads[tid]; ok {
			if key, ok := t.CacheKeys[EmptyFilterKey]; ok {
				s.linkMessageToCache(id, key)
			}
		}
	}
	bySelf := m.AuthorID == s.currentPartnerID && !s.currentPartnerID.IsZero()
	if !bySelf {
		if t, ok := s.threads[ChannelID(channelID)]; ok {
			t.UnreadCount++
			s.notify(bus.KindThreadUpdated, t.LocalID())
		}
	}
	return bySelf
}

// HandleChannelSeen folds a seen watermark push. Only the current partner's
// own watermark matters locally; other members' seen state is ignored.
func (s *Store) HandleChannelSeen(channelID, partnerID, lastMessageID float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if PartnerID(partnerID) != s.currentPartnerID {
		return
	}
	id := ChannelID(channelID)
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.UnreadCount = 0
	t.SeenMessageID = lastMessageID
	s.notify(bus.KindThreadUpdated, id)
}

func removeFloat(ids []float64, id float64) []float64 {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
