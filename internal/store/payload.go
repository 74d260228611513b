package store

import (
	"bytes"
	"encoding/json"
	"time"
)

// PartnerRef is the backend's compact partner reference, an [id, name]
// tuple. Valid is false when the field was absent or null.
type PartnerRef struct {
	ID    float64
	Name  string
	Valid bool
}

// UnmarshalJSON accepts [id, name], a bare id, or null/false.
func (r *PartnerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")) {
		*r = PartnerRef{}
		return nil
	}
	if data[0] == '[' {
		var tuple []any
		if err := json.Unmarshal(data, &tuple); err != nil {
			return err
		}
		if len(tuple) == 0 {
			*r = PartnerRef{}
			return nil
		}
		id, _ := tuple[0].(float64)
		name := ""
		if len(tuple) > 1 {
			name, _ = tuple[1].(string)
		}
		*r = PartnerRef{ID: id, Name: name, Valid: true}
		return nil
	}
	var id float64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = PartnerRef{ID: id, Valid: true}
	return nil
}

// DateTime decodes the backend's "2006-01-02 15:04:05" timestamps and
// tolerates null/false for undated records.
type DateTime struct {
	time.Time
}

const dateTimeLayout = "2006-01-02 15:04:05"

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// PartnerData is a partner create/patch payload. Empty strings mean the
// field was absent and leave the current value alone.
type PartnerData struct {
	ID          float64  `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	IMStatus    string   `json:"im_status"`
	UserID      *float64 `json:"user_id"`
}

// ThreadData is a thread create/patch payload. Pointer fields distinguish
// "absent" from an explicit zero value; nil slices mean absent.
type ThreadData struct {
	ID              float64       `json:"id"`
	Model           string        `json:"model"`
	Name            string        `json:"name"`
	ChannelType     string        `json:"channel_type"`
	FoldState       string        `json:"state"`
	IsMinimized     *bool         `json:"is_minimized"`
	IsPinned        *bool         `json:"is_pinned"`
	Counter         *int          `json:"counter"`
	UnreadCount     *int          `json:"message_unread_counter"`
	NeedactionCount *int          `json:"message_needaction_counter"`
	SeenMessageID   *float64      `json:"seen_message_id"`
	CustomName      *string       `json:"custom_channel_name"`
	UUID            string        `json:"uuid"`
	Members         []PartnerData `json:"members"`
	DirectPartner   []PartnerData `json:"direct_partner"`
}

// ThreadKind resolves the thread kind carried by the payload: an explicit
// document model wins, otherwise anything with a channel type is a channel.
func (d ThreadData) ThreadKind() Kind {
	if d.Model != "" {
		return Kind(d.Model)
	}
	return KindChannel
}

// MessageData is a message create/patch payload in the backend's wire
// shape.
type MessageData struct {
	ID                   float64          `json:"id"`
	Author               PartnerRef       `json:"author_id"`
	Subject              string           `json:"subject"`
	Body                 string           `json:"body"`
	Date                 DateTime         `json:"date"`
	Type                 string           `json:"message_type"`
	ChannelIDs           []float64        `json:"channel_ids"`
	NeedactionPartnerIDs []float64        `json:"needaction_partner_ids"`
	StarredPartnerIDs    []float64        `json:"starred_partner_ids"`
	HistoryPartnerIDs    []float64        `json:"history_partner_ids"`
	Attachments          []AttachmentData `json:"attachment_ids"`
	Model                string           `json:"model"`
	ResID                float64          `json:"res_id"`
	RecordName           string           `json:"record_name"`

	// IsTransient marks locally-synthesized messages; never set by the wire.
	IsTransient bool `json:"-"`
}

// AttachmentData is an attachment create/patch payload.
type AttachmentData struct {
	ID       float64 `json:"id"`
	Filename string  `json:"filename"`
	Name     string  `json:"name"`
	Mimetype string  `json:"mimetype"`
	Size     int64   `json:"size"`
	IsMain   bool    `json:"is_main"`
	Model    string  `json:"res_model"`
	ResID    float64 `json:"res_id"`

	// IsTemporary requests a locally-synthesized negative id; never set by
	// the wire.
	IsTemporary bool `json:"-"`
}

// ChannelSlots is the initial channel listing delivered at startup.
type ChannelSlots struct {
	Channel       []ThreadData `json:"channel_channel"`
	DirectMessage []ThreadData `json:"channel_direct_message"`
	PrivateGroup  []ThreadData `json:"channel_private_group"`
}

// InitData is the startup snapshot the whole store is seeded from.
type InitData struct {
	CurrentPartner  PartnerData  `json:"current_partner"`
	NeedactionCount int          `json:"needaction_inbox_counter"`
	StarredCount    int          `json:"starred_counter"`
	ChannelSlots    ChannelSlots `json:"channel_slots"`
}

// PartnerStatus is one entry of a presence poll response.
type PartnerStatus struct {
	ID     float64 `json:"id"`
	Status string  `json:"im_status"`
}
