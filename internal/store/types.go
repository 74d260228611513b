package store

import "time"

// Presence statuses. The empty string means the status was never fetched;
// StatusUnknown means a poll ran and the backend reported nothing for the
// partner, so it must not be re-requested every cycle.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
	StatusUnknown = "unknown"
)

// Thread fold states.
const (
	FoldOpen   = "open"
	FoldFolded = "folded"
	FoldClosed = "closed"
)

// Channel sub-types.
const (
	ChannelTypeChannel = "channel"
	ChannelTypeChat    = "chat"
	ChannelTypeGroup   = "group"
)

// Partner is a known person. AuthorMessageIDs is a reverse link maintained
// incrementally by link/unlink mutations, never recomputed from scratch.
type Partner struct {
	ID          float64
	Name        string
	DisplayName string
	Email       string
	IMStatus    string
	// UserID is the backend user linked to this partner, meaningful only
	// once UserChecked is true. A checked partner with UserID 0 has no user.
	UserID      float64
	UserChecked bool

	AuthorMessageIDs IDSet
}

// LocalID returns the partner's composite local key.
func (p *Partner) LocalID() LocalID { return LocalID{Kind: KindPartner, ID: p.ID} }

// Thread is a channel, mailbox or document-bound discussion.
type Thread struct {
	Kind Kind
	ID   float64

	Name        string
	CustomName  string
	ChannelType string
	FoldState   string
	IsMinimized bool
	IsPinned    bool
	UUID        string

	// Counter is the mailbox badge counter (inbox needaction, starred total).
	Counter         int
	UnreadCount     int
	NeedactionCount int
	SeenMessageID   float64

	// memberIDs raw form, kept so MemberIDs can be recomputed on update.
	rawMemberIDs []float64
	rawDirectID  float64

	// Derived.
	MemberIDs       IDSet
	DirectPartnerID LocalID

	// MessageIDs is ascending by numeric id. CacheKeys maps a serialized
	// filter to the thread cache scoped to it; it holds at least the
	// empty-filter cache once the thread exists.
	MessageIDs IDSet
	CacheKeys  map[string]CacheKey

	// ExplicitMessageIDs drives document-thread loading, which fetches by
	// id list instead of by query filter.
	ExplicitMessageIDs []float64
}

// LocalID returns the thread's composite local key.
func (t *Thread) LocalID() LocalID { return LocalID{Kind: t.Kind, ID: t.ID} }

// ThreadCache is an ordered, filter-scoped view of a thread's messages
// with its own loading state.
type ThreadCache struct {
	Key CacheKey

	// MessageIDs is strictly ascending by numeric id and only ever holds
	// ids present in the store.
	MessageIDs IDSet

	IsLoading          bool
	IsLoaded           bool
	IsLoadingMore      bool
	IsAllHistoryLoaded bool

	// PostCount counts messages the current partner posted through this
	// cache's view.
	PostCount int
}

// Message is a single posted message. ThreadIDs, AuthorID and
// AttachmentIDs are derived purely from the primary fields by
// computeMessageDerived.
type Message struct {
	ID          float64
	Subject     string
	Body        string
	Date        time.Time
	Type        string
	IsTransient bool

	AuthorRef            PartnerRef
	ChannelIDs           []float64
	NeedactionPartnerIDs []float64
	StarredPartnerIDs    []float64
	HistoryPartnerIDs    []float64
	AttachmentRefs       []AttachmentData
	OriginKind           Kind
	OriginID             float64
	RecordName           string

	// Derived.
	ThreadIDs     IDSet
	AuthorID      LocalID
	AttachmentIDs IDSet
	OriginThread  LocalID
}

// LocalID returns the message's composite local key.
func (m *Message) LocalID() LocalID { return LocalID{Kind: KindMessage, ID: m.ID} }

// Attachment is an uploaded or uploading file. Negative ids mark temporary
// attachments that are replaced, not merged, once the real upload lands.
type Attachment struct {
	ID          float64
	Filename    string
	Name        string
	Mimetype    string
	Size        int64
	IsTemporary bool
	OriginKind  Kind
	OriginID    float64

	// ComposerID is the composer currently holding this attachment, empty
	// if none. MessageIDs is the incremental reverse link to messages.
	ComposerID string
	MessageIDs IDSet
}

// LocalID returns the attachment's composite local key.
func (a *Attachment) LocalID() LocalID { return LocalID{Kind: KindAttachment, ID: a.ID} }

// Composer is a free-form draft. Removing a composer detaches but never
// deletes shared attachments.
type Composer struct {
	ID            string
	Text          string
	AttachmentIDs IDSet
}

// Discuss is the full-screen discussion panel state. While it is open on
// non-mobile, chat windows are not docked at all.
type Discuss struct {
	IsOpen         bool
	ActiveThreadID LocalID
	Filter         Filter
}

// Viewport is the host window geometry the dock layout is computed from.
type Viewport struct {
	Width    int
	Height   int
	IsMobile bool
}
