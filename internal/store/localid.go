package store

import "strconv"

// Kind names an entity collection. Thread kinds are open-ended: besides
// KindChannel and KindMailbox, any document model name ("crm.lead", ...)
// identifies a document-bound thread.
type Kind string

const (
	KindChannel    Kind = "channel"
	KindMailbox    Kind = "mailbox"
	KindPartner    Kind = "partner"
	KindMessage    Kind = "message"
	KindAttachment Kind = "attachment"

	// KindNewMessage is the sentinel kind of the "new message" dock slot.
	KindNewMessage Kind = "new_message"
)

// LocalID is the composite local key addressing any entity in the store.
// IDs are float64 because locally-synthesized records use fractional or
// negative ids to avoid colliding with server ids: temporary attachments
// count down from -1, transient messages are placed just after the highest
// known message id.
type LocalID struct {
	Kind Kind
	ID   float64
}

// Mailbox ids. The original backend addresses mailboxes by name; locally
// they get small reserved numeric ids under KindMailbox.
const (
	MailboxInboxID   = 1
	MailboxStarredID = 2
	MailboxHistoryID = 3
)

// BotPartnerID is the reserved id of the system bot partner, author of
// transient command responses.
const BotPartnerID = -1

var (
	InboxID   = LocalID{Kind: KindMailbox, ID: MailboxInboxID}
	StarredID = LocalID{Kind: KindMailbox, ID: MailboxStarredID}
	HistoryID = LocalID{Kind: KindMailbox, ID: MailboxHistoryID}

	// SlotNewMessage is the dock slot holding a not-yet-targeted composer
	// instead of a thread.
	SlotNewMessage = LocalID{Kind: KindNewMessage}
)

// MessageID returns the local key of a message with the given remote id.
func MessageID(id float64) LocalID { return LocalID{Kind: KindMessage, ID: id} }

// PartnerID returns the local key of a partner with the given remote id.
func PartnerID(id float64) LocalID { return LocalID{Kind: KindPartner, ID: id} }

// ChannelID returns the local key of a channel with the given remote id.
func ChannelID(id float64) LocalID { return LocalID{Kind: KindChannel, ID: id} }

// AttachmentID returns the local key of an attachment with the given remote id.
func AttachmentID(id float64) LocalID { return LocalID{Kind: KindAttachment, ID: id} }

// IsZero reports whether the id is unset.
func (l LocalID) IsZero() bool { return l.Kind == "" && l.ID == 0 }

func (l LocalID) String() string {
	return string(l.Kind) + "/" + strconv.FormatFloat(l.ID, 'f', -1, 64)
}

// IsConversationKind reports whether threads of this kind are loaded by
// query filter (channels and mailboxes) as opposed to document threads,
// which are loaded by explicit message-id list.
func IsConversationKind(k Kind) bool {
	return k == KindChannel || k == KindMailbox
}

// CacheKey addresses one ThreadCache: the owning thread plus the
// serialized form of the cache's filter.
type CacheKey struct {
	Thread LocalID
	Filter string
}
