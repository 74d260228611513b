package store

import "github.com/matheus3301/mailmirror/internal/bus"

// CreateThreadCache registers the page cache of a thread for a filter. The
// parent thread must already exist. Creating an existing cache is a no-op
// that returns its key.
func (s *Store) CreateThreadCache(threadID LocalID, filter Filter) (CacheKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, err := s.createThreadCache(threadID, filter)
	if err != nil {
		return CacheKey{}, err
	}
	return key, nil
}

func (s *Store) createThreadCache(threadID LocalID, filter Filter) (CacheKey, error) {
	t, ok := s.threads[threadID]
	if !ok {
		return CacheKey{}, &MissingAncestorError{Child: "thread cache", Ancestor: threadID}
	}
	key := CacheKey{Thread: threadID, Filter: filter.Key()}
	if _, ok := s.caches[key]; ok {
		return key, nil
	}
	s.caches[key] = &ThreadCache{Key: key}
	t.CacheKeys[key.Filter] = key
	s.notify(bus.KindCacheUpdated, key)
	return key, nil
}

// SetCacheLoading flags the initial fetch of a cache as in flight.
func (s *Store) SetCacheLoading(key CacheKey, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[key]
	if !ok {
		return
	}
	c.IsLoading = loading
	s.notify(bus.KindCacheUpdated, key)
}

// SetCacheLoadingMore flags an older-page fetch of a cache as in flight.
func (s *Store) SetCacheLoadingMore(key CacheKey, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[key]
	if !ok {
		return
	}
	c.IsLoadingMore = loading
	s.notify(bus.KindCacheUpdated, key)
}

// IncrementCachePostCount bumps the local-post counter used to keep "all
// history loaded" accurate when the viewer posted into a fully loaded cache.
func (s *Store) IncrementCachePostCount(key CacheKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[key]
	if !ok {
		return
	}
	c.PostCount++
}

// CacheMinMessageID returns the lowest message id currently held by a cache,
// or 0 when the cache is empty. Page ordering makes this the first entry.
func (s *Store) CacheMinMessageID(key CacheKey) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[key]
	if !ok || len(c.MessageIDs) == 0 {
		return 0
	}
	return c.MessageIDs[0].ID
}

// HandleThreadLoaded folds a fetched message page into a thread cache: it
// marks the cache loaded, records whether the page was short of the limit
// (meaning no older history remains), and inserts every message with its
// link cascade.
func (s *Store) HandleThreadLoaded(threadID LocalID, filter Filter, msgs []MessageData, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, err := s.createThreadCache(threadID, filter)
	if err != nil {
		return err
	}
	c := s.caches[key]
	c.IsAllHistoryLoaded = len(msgs) < limit
	c.IsLoaded = true
	c.IsLoadingMore = false
	computeCacheDerived(c)
	for _, data := range msgs {
		id := s.insertMessage(data)
		s.linkMessageToCache(id, key)
	}
	s.notify(bus.KindCacheUpdated, key)
	return nil
}

// LinkMessageToCache adds an already known message to a cache, keeping the
// ascending id order.
func (s *Store) LinkMessageToCache(msgID LocalID, key CacheKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkMessageToCache(msgID, key)
}

func (s *Store) linkMessageToCache(msgID LocalID, key CacheKey) error {
	c, ok := s.caches[key]
	if !ok {
		return &MissingAncestorError{Child: "message link", Ancestor: key.Thread}
	}
	if c.MessageIDs.Contains(msgID) {
		return nil
	}
	c.MessageIDs = c.MessageIDs.LinkOrdered(msgID)
	s.notify(bus.KindCacheUpdated, key)
	return nil
}

func (s *Store) unlinkMessageFromCache(msgID LocalID, key CacheKey) {
	c, ok := s.caches[key]
	if !ok {
		return
	}
	if !c.MessageIDs.Contains(msgID) {
		return
	}
	c.MessageIDs = c.MessageIDs.Unlink(msgID)
	s.notify(bus.KindCacheUpdated, key)
}
