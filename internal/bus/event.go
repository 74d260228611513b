package bus

import "time"

// Event represents a store change published on the bus. Kind is a
// dot-separated topic ("thread.updated", "windows.computed", ...) so
// subscribers can filter by namespace prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Topics published by the messaging store. UI layers subscribe to a prefix
// ("message.", "windows.") and re-read the store on receipt; payloads only
// identify what changed.
const (
	KindThreadInserted    = "thread.inserted"
	KindThreadUpdated     = "thread.updated"
	KindCacheUpdated      = "cache.updated"
	KindMessageInserted   = "message.inserted"
	KindMessageUpdated    = "message.updated"
	KindMessageDeleted    = "message.deleted"
	KindPartnerUpdated    = "partner.updated"
	KindAttachmentDeleted = "attachment.deleted"
	KindWindowsComputed   = "windows.computed"
)
