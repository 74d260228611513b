package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/bus"
)

// Store is the process-wide mirror of the remote messaging entities plus
// the derived indexes the UI renders from. All writes go through its
// exported mutation methods; each one is a single atomic step under the
// store lock, and cascades run as unexported helpers inside that step.
//
// Store instances are independent, so tests build as many as they need.
type Store struct {
	mu  sync.Mutex
	bus *bus.Bus
	log *zap.Logger

	threads     map[LocalID]*Thread
	caches      map[CacheKey]*ThreadCache
	messages    map[LocalID]*Message
	partners    map[LocalID]*Partner
	attachments map[LocalID]*Attachment
	composers   map[string]*Composer

	// tempByFilename finds the temporary attachment a finished upload
	// replaces. Temporary ids count down from -1.
	tempByFilename   map[string]LocalID
	nextTempAttachID float64

	currentPartnerID LocalID

	windows  WindowManager
	discuss  Discuss
	viewport Viewport
}

// New creates an empty store. The bus may be nil when no observer is
// interested (most tests).
func New(b *bus.Bus, log *zap.Logger, vp Viewport) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		bus:              b,
		log:              log,
		threads:          make(map[LocalID]*Thread),
		caches:           make(map[CacheKey]*ThreadCache),
		messages:         make(map[LocalID]*Message),
		partners:         make(map[LocalID]*Partner),
		attachments:      make(map[LocalID]*Attachment),
		composers:        make(map[string]*Composer),
		tempByFilename:   make(map[string]LocalID),
		nextTempAttachID: -1,
		viewport:         vp,
	}
}

func (s *Store) notify(kind string, payload any) {
	if s.bus != nil {
		s.bus.Notify(kind, payload)
	}
}

// InitMessaging seeds the store from the startup snapshot: the system bot
// partner, the current partner, the three mailboxes with their counters,
// then every channel the current user belongs to. Channels arriving
// minimized get their dock slot immediately.
func (s *Store) InitMessaging(data InitData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertPartner(PartnerData{ID: BotPartnerID, Name: "System"})
	current := s.insertPartner(data.CurrentPartner)
	s.currentPartnerID = current

	s.createThread(ThreadData{Model: string(KindMailbox), ID: MailboxInboxID, Name: "Inbox", Counter: &data.NeedactionCount})
	s.createThread(ThreadData{Model: string(KindMailbox), ID: MailboxStarredID, Name: "Starred", Counter: &data.StarredCount})
	s.createThread(ThreadData{Model: string(KindMailbox), ID: MailboxHistoryID, Name: "History"})

	for _, slot := range [][]ThreadData{
		data.ChannelSlots.Channel,
		data.ChannelSlots.DirectMessage,
		data.ChannelSlots.PrivateGroup,
	} {
		for _, td := range slot {
			s.insertThread(td)
		}
	}
}

// CurrentPartnerID returns the local key of the logged-in partner.
func (s *Store) CurrentPartnerID() LocalID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPartnerID
}

// Thread returns a copy of the thread with the given key. Slices and maps
// inside the copy are shared and must be treated as read-only.
func (s *Store) Thread(id LocalID) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return Thread{}, false
	}
	return *t, true
}

// Cache returns a copy of the thread cache with the given key.
func (s *Store) Cache(key CacheKey) (ThreadCache, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[key]
	if !ok {
		return ThreadCache{}, false
	}
	return *c, true
}

// Message returns a copy of the message with the given key.
func (s *Store) Message(id LocalID) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// Partner returns a copy of the partner with the given key.
func (s *Store) Partner(id LocalID) (Partner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return Partner{}, false
	}
	return *p, true
}

// Attachment returns a copy of the attachment with the given key.
func (s *Store) Attachment(id LocalID) (Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		return Attachment{}, false
	}
	return *a, true
}

// Composer returns a copy of the composer with the given id.
func (s *Store) Composer(id string) (Composer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.composers[id]
	if !ok {
		return Composer{}, false
	}
	return *c, true
}

// Partners returns copies of every known partner, in no particular order.
func (s *Store) Partners() []Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Partner, 0, len(s.partners))
	for _, p := range s.partners {
		out = append(out, *p)
	}
	return out
}

// ChannelThreads returns copies of every channel-kind thread.
func (s *Store) ChannelThreads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Thread
	for _, t := range s.threads {
		if t.Kind == KindChannel {
			out = append(out, *t)
		}
	}
	return out
}

// ChatWithPartner returns the direct-message thread with the given partner,
// if one is known.
func (s *Store) ChatWithPartner(partnerID LocalID) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.ChannelType == ChannelTypeChat && t.DirectPartnerID == partnerID {
			return *t, true
		}
	}
	return Thread{}, false
}

// PresencePartnerIDs returns the remote ids whose presence should be
// polled: every partner except the system bot and those a previous poll
// reported as unknown.
func (s *Store) PresencePartnerIDs() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []float64
	for _, p := range s.partners {
		if p.ID == BotPartnerID || p.IMStatus == StatusUnknown {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// ApplyPresence folds a presence poll response into the store. Requested
// partners missing from the response get the explicit unknown status
// instead of staying stale.
func (s *Store) ApplyPresence(requested []float64, statuses []PartnerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[float64]bool, len(statuses))
	for _, st := range statuses {
		seen[st.ID] = true
		if p, ok := s.partners[PartnerID(st.ID)]; ok {
			p.IMStatus = st.Status
			s.notify(bus.KindPartnerUpdated, p.LocalID())
		}
	}
	for _, id := range requested {
		if seen[id] {
			continue
		}
		if p, ok := s.partners[PartnerID(id)]; ok {
			p.IMStatus = StatusUnknown
			s.notify(bus.KindPartnerUpdated, p.LocalID())
		}
	}
}
