package notify

import (
	"encoding/json"
	"fmt"

	"github.com/matheus3301/mailmirror/internal/store"
)

// Wire target kinds.
const (
	targetChannel = "channel"
	targetPartner = "partner"
)

// DecodeBatch parses a raw push batch: a JSON array of
// [[origin, kind, id], payload] tuples. Malformed framing is an error;
// unknown payload shapes decode to Ignored so shared-channel traffic from
// unrelated subsystems never breaks the dispatcher.
func DecodeBatch(raw json.RawMessage) ([]Item, error) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding notification batch: %w", err)
	}
	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 2 {
			return nil, fmt.Errorf("notification %d: expected [header, payload] pair", i)
		}
		var header []any
		if err := json.Unmarshal(entry[0], &header); err != nil || len(header) != 3 {
			return nil, fmt.Errorf("notification %d: malformed header", i)
		}
		item := Item{}
		item.Origin, _ = header[0].(string)
		item.TargetKind, _ = header[1].(string)
		item.TargetID, _ = header[2].(float64)
		item.Notification = decodePayload(item, entry[1])
		items = append(items, item)
	}
	return items, nil
}

func decodePayload(item Item, payload json.RawMessage) Notification {
	switch item.TargetKind {
	case targetChannel:
		return decodeChannelPayload(item.TargetID, payload)
	case targetPartner:
		return decodePartnerPayload(payload)
	default:
		return Ignored{Reason: "unknown target kind " + item.TargetKind}
	}
}

func decodeChannelPayload(channelID float64, payload json.RawMessage) Notification {
	var probe struct {
		Info          string  `json:"info"`
		PartnerID     float64 `json:"partner_id"`
		LastMessageID float64 `json:"last_message_id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return Ignored{Reason: "malformed channel payload"}
	}
	switch probe.Info {
	case "channel_seen":
		return ChannelSeen{
			ChannelID:     channelID,
			PartnerID:     probe.PartnerID,
			LastMessageID: probe.LastMessageID,
		}
	case "typing_status", "channel_fetched":
		return Ignored{Reason: "channel " + probe.Info}
	case "":
		var msg store.MessageData
		if err := json.Unmarshal(payload, &msg); err != nil || msg.ID == 0 {
			return Ignored{Reason: "channel payload without message"}
		}
		return ChannelMessage{ChannelID: channelID, Message: msg}
	default:
		return Ignored{Reason: "unknown channel info " + probe.Info}
	}
}

func decodePartnerPayload(payload json.RawMessage) Notification {
	var probe struct {
		Info        string    `json:"info"`
		Type        string    `json:"type"`
		ID          float64   `json:"id"`
		ChannelType string    `json:"channel_type"`
		MessageIDs  []float64 `json:"message_ids"`
		Starred     bool      `json:"starred"`
		PartnerID   float64   `json:"partner_id"`
		Username    string    `json:"username"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return Ignored{Reason: "malformed partner payload"}
	}

	switch {
	case probe.Info == "unsubscribe":
		return Unsubscribe{ChannelID: probe.ID}
	case probe.Type == "mark_as_read":
		return MarkAsRead{MessageIDs: probe.MessageIDs}
	case probe.Type == "toggle_star":
		return ToggleStar{MessageIDs: probe.MessageIDs, Starred: probe.Starred}
	case probe.Info == "transient_message":
		var msg store.MessageData
		if err := json.Unmarshal(payload, &msg); err != nil {
			return Ignored{Reason: "malformed transient message"}
		}
		return TransientMessage{Message: msg}
	case probe.Type == "user_connection":
		return UserConnection{PartnerID: probe.PartnerID, Name: probe.Username}
	case probe.Type == "activity_updated", probe.Type == "simple_notification":
		return Ignored{Reason: "partner " + probe.Type}
	case probe.ChannelType != "":
		// conversation metadata changed, the residual partner case
		var data store.ThreadData
		if err := json.Unmarshal(payload, &data); err != nil {
			return Ignored{Reason: "malformed channel state"}
		}
		return ChannelState{Thread: data}
	default:
		var msg store.MessageData
		if err := json.Unmarshal(payload, &msg); err != nil || msg.ID == 0 {
			return Ignored{Reason: "unknown partner payload"}
		}
		return Needaction{Message: msg}
	}
}
