package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/matheus3301/mailmirror/internal/actions"
	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/store"
)

type fakeCaller struct {
	calls   []actions.Request
	handler func(req actions.Request) (json.RawMessage, error)
}

func (f *fakeCaller) Call(_ context.Context, req actions.Request) (json.RawMessage, error) {
	f.calls = append(f.calls, req)
	if f.handler != nil {
		return f.handler(req)
	}
	return json.RawMessage(`null`), nil
}

func newTestDispatcher(t *testing.T, rpc *fakeCaller) (*Dispatcher, *store.Store) {
	t.Helper()
	s := store.New(nil, nil, store.Viewport{Width: 1920, Height: 1080})
	s.InitMessaging(store.InitData{CurrentPartner: store.PartnerData{ID: 7, Name: "Alice"}})
	orch := actions.New(s, rpc, nil, config.New(), nil)
	return New(s, orch, nil), s
}

func TestHandleBatchChannelMessage(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	batch := json.RawMessage(`[
		[["db", "channel", 7], {"id": 30, "author_id": [42, "Bob"], "body": "hi", "channel_ids": [7]}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Message(store.MessageID(30)); !ok {
		t.Fatal("pushed message not inserted")
	}
	th, _ := s.Thread(store.ChannelID(7))
	if th.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", th.UnreadCount)
	}
}

func TestHandleBatchOwnMessageMarksSeen(t *testing.T) {
	rpc := &fakeCaller{}
	d, s := newTestDispatcher(t, rpc)
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	batch := json.RawMessage(`[
		[["db", "channel", 7], {"id": 30, "author_id": [7, "Alice"], "body": "hi", "channel_ids": [7]}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	if len(rpc.calls) == 0 || rpc.calls[len(rpc.calls)-1].Method != "channel_seen" {
		t.Error("own channel message did not report the seen watermark")
	}
}

func TestHandleBatchJoinsUnknownChannel(t *testing.T) {
	rpc := &fakeCaller{handler: func(req actions.Request) (json.RawMessage, error) {
		if req.Method == "channel_join_and_get_info" {
			return json.RawMessage(`{"id": 9, "name": "pushed", "channel_type": "channel"}`), nil
		}
		return json.RawMessage(`null`), nil
	}}
	d, s := newTestDispatcher(t, rpc)

	batch := json.RawMessage(`[
		[["db", "channel", 9], {"id": 31, "body": "first", "channel_ids": [9]}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Thread(store.ChannelID(9)); !ok {
		t.Fatal("unknown channel not joined")
	}
	if _, ok := s.Message(store.MessageID(31)); !ok {
		t.Error("message lost while joining")
	}
}

// Unsubscribe precedence: the unsubscribe wins over every other
// notification about the same channel in the batch.
func TestUnsubscribePrecedence(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, Name: "general", ChannelType: store.ChannelTypeChannel})

	batch := json.RawMessage(`[
		[["db", "channel", 7], {"id": 30, "body": "stale", "channel_ids": [7]}],
		[["db", "partner", 7], {"info": "unsubscribe", "id": 7}],
		[["db", "partner", 7], {"id": 7, "channel_type": "channel", "name": "renamed"}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	th, ok := s.Thread(store.ChannelID(7))
	if !ok {
		t.Fatal("unsubscribe must keep the record")
	}
	if th.IsPinned {
		t.Error("channel still pinned after unsubscribe")
	}
	if th.Name != "general" {
		t.Error("stale metadata resurrected the channel")
	}
	if _, ok := s.Message(store.MessageID(30)); ok {
		t.Error("stale message applied despite unsubscribe")
	}
}

func TestToggleStarSkipsUnknown(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	s.InsertMessage(store.MessageData{ID: 10, ChannelIDs: []float64{7}, StarredPartnerIDs: []float64{7}})
	s.UpdateThread(store.StarredID, store.ThreadData{Counter: counterPtr(1)})

	batch := json.RawMessage(`[
		[["db", "partner", 7], {"type": "toggle_star", "message_ids": [10, 11], "starred": false}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	m, _ := s.Message(store.MessageID(10))
	if m.ThreadIDs.Contains(store.StarredID) {
		t.Error("message 10 still starred")
	}
	st, _ := s.Thread(store.StarredID)
	if st.Counter != 0 {
		t.Errorf("starred counter = %d, want 0", st.Counter)
	}
}

func counterPtr(v int) *int { return &v }

func TestHandleBatchMarkAsRead(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	s.HandleNeedaction(store.MessageData{ID: 20, ChannelIDs: []float64{7}, NeedactionPartnerIDs: []float64{7}})

	batch := json.RawMessage(`[
		[["db", "partner", 7], {"type": "mark_as_read", "message_ids": [20]}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	m, _ := s.Message(store.MessageID(20))
	if m.ThreadIDs.Contains(store.InboxID) {
		t.Error("message still in inbox")
	}
	inbox, _ := s.Thread(store.InboxID)
	if inbox.Counter != 0 {
		t.Errorf("inbox counter = %d, want 0", inbox.Counter)
	}
}

func TestHandleBatchTransientMessage(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	s.OpenDiscuss(store.ChannelID(7))

	batch := json.RawMessage(`[
		[["db", "partner", 7], {"info": "transient_message", "body": "You are now away."}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	th, _ := s.Thread(store.ChannelID(7))
	found := false
	for _, mid := range th.MessageIDs {
		if m, ok := s.Message(mid); ok && m.IsTransient {
			found = true
		}
	}
	if !found {
		t.Error("transient message not placed in the active thread")
	}
}

func TestHandleBatchUnknownShapes(t *testing.T) {
	d, s := newTestDispatcher(t, &fakeCaller{})
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	// unknown kinds and irrelevant infos are logged and dropped, never fatal
	batch := json.RawMessage(`[
		[["db", "presence", 1], {"whatever": true}],
		[["db", "channel", 7], {"info": "typing_status", "partner_id": 42}],
		[["db", "partner", 7], {"type": "activity_updated"}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}
}

func TestHandleBatchMalformedFraming(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeCaller{})
	if err := d.HandleBatch(context.Background(), json.RawMessage(`{"not": "a batch"}`)); err == nil {
		t.Error("malformed framing should error")
	}
}

func TestDecodeChannelSeen(t *testing.T) {
	items, err := DecodeBatch(json.RawMessage(`[
		[["db", "channel", 7], {"info": "channel_seen", "partner_id": 7, "last_message_id": 30}]
	]`))
	if err != nil {
		t.Fatal(err)
	}
	seen, ok := items[0].Notification.(ChannelSeen)
	if !ok {
		t.Fatalf("decoded %T, want ChannelSeen", items[0].Notification)
	}
	if seen.ChannelID != 7 || seen.PartnerID != 7 || seen.LastMessageID != 30 {
		t.Errorf("decoded %+v", seen)
	}
}

func TestDecodeUserConnection(t *testing.T) {
	items, err := DecodeBatch(json.RawMessage(`[
		[["db", "partner", 7], {"type": "user_connection", "partner_id": 42, "username": "Bob"}]
	]`))
	if err != nil {
		t.Fatal(err)
	}
	conn, ok := items[0].Notification.(UserConnection)
	if !ok {
		t.Fatalf("decoded %T, want UserConnection", items[0].Notification)
	}
	if conn.PartnerID != 42 || conn.Name != "Bob" {
		t.Errorf("decoded %+v", conn)
	}
}
