package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/store"
)

type fakeCaller struct {
	calls   []Request
	handler func(req Request) (json.RawMessage, error)
}

func (f *fakeCaller) Call(_ context.Context, req Request) (json.RawMessage, error) {
	f.calls = append(f.calls, req)
	if f.handler != nil {
		return f.handler(req)
	}
	return json.RawMessage(`null`), nil
}

func (f *fakeCaller) last(t *testing.T) Request {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("no remote call issued")
	}
	return f.calls[len(f.calls)-1]
}

type upperEnricher struct{}

func (upperEnricher) Enrich(body string) string { return body + "!" }

func newTestOrchestrator(t *testing.T, rpc *fakeCaller) *Orchestrator {
	t.Helper()
	s := store.New(nil, nil, store.Viewport{Width: 1920, Height: 1080})
	s.InitMessaging(store.InitData{CurrentPartner: store.PartnerData{ID: 7, Name: "Alice"}})
	return New(s, rpc, nil, config.New(), nil)
}

func TestInitMessaging(t *testing.T) {
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		if req.Route != "/mail/init_messaging" {
			t.Errorf("route = %q", req.Route)
		}
		return json.RawMessage(`{
			"current_partner": {"id": 7, "name": "Alice"},
			"needaction_inbox_counter": 2,
			"channel_slots": {"channel_channel": [{"id": 1, "name": "general", "channel_type": "channel"}]}
		}`), nil
	}}
	s := store.New(nil, nil, store.Viewport{Width: 1920})
	o := New(s, rpc, nil, config.New(), nil)

	if err := o.InitMessaging(context.Background()); err != nil {
		t.Fatal(err)
	}
	inbox, _ := s.Thread(store.InboxID)
	if inbox.Counter != 2 {
		t.Errorf("inbox counter = %d, want 2", inbox.Counter)
	}
	if _, ok := s.Thread(store.ChannelID(1)); !ok {
		t.Error("channel slot not mirrored")
	}
}

// The fresh-load scenario through the orchestrator: the backend returns
// ids [5, 3, 9] and the cache ends up ordered with settled flags.
func TestLoadThreadCache(t *testing.T) {
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		if req.Method != "message_fetch" {
			t.Errorf("method = %q", req.Method)
		}
		return json.RawMessage(`[
			{"id": 5, "channel_ids": [7]},
			{"id": 3, "channel_ids": [7]},
			{"id": 9, "channel_ids": [7]}
		]`), nil
	}}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	if err := o.LoadThreadCache(context.Background(), store.ChannelID(7), nil); err != nil {
		t.Fatal(err)
	}

	c, _ := o.Store().Cache(store.CacheKey{Thread: store.ChannelID(7), Filter: store.EmptyFilterKey})
	want := []float64{3, 5, 9}
	if len(c.MessageIDs) != 3 {
		t.Fatalf("cache = %v", c.MessageIDs)
	}
	for i, mid := range c.MessageIDs {
		if mid.ID != want[i] {
			t.Fatalf("cache order = %v, want %v", c.MessageIDs, want)
		}
	}
	if !c.IsLoaded || c.IsLoading {
		t.Errorf("flags: loaded=%v loading=%v", c.IsLoaded, c.IsLoading)
	}

	// loaded cache: second call must not re-fetch
	n := len(rpc.calls)
	if err := o.LoadThreadCache(context.Background(), store.ChannelID(7), nil); err != nil {
		t.Fatal(err)
	}
	if len(rpc.calls) != n {
		t.Error("reload fetched despite loaded cache")
	}
}

func TestLoadThreadCacheScopesMailbox(t *testing.T) {
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		domain := req.Args[0].(store.Filter)
		if len(domain) == 0 || domain[0].Field != "starred" {
			t.Errorf("domain = %+v, want starred scope first", domain)
		}
		return json.RawMessage(`[]`), nil
	}}
	o := newTestOrchestrator(t, rpc)

	if err := o.LoadThreadCache(context.Background(), store.StarredID, nil); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMoreMessages(t *testing.T) {
	pages := 0
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		pages++
		if pages == 1 {
			// full page keeps history open
			msgs := make([]map[string]any, 30)
			for i := range msgs {
				msgs[i] = map[string]any{"id": 100 + i, "channel_ids": []float64{7}}
			}
			return json.Marshal(msgs)
		}
		domain := req.Args[0].(store.Filter)
		if domain[0].Field != "id" || domain[0].Op != "<" || domain[0].Value != float64(100) {
			t.Errorf("older-page domain = %+v", domain[0])
		}
		return json.RawMessage(`[{"id": 50, "channel_ids": [7]}]`), nil
	}}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	ctx := context.Background()

	if err := o.LoadThreadCache(ctx, store.ChannelID(7), nil); err != nil {
		t.Fatal(err)
	}
	if err := o.LoadMoreMessages(ctx, store.ChannelID(7), nil); err != nil {
		t.Fatal(err)
	}

	key := store.CacheKey{Thread: store.ChannelID(7), Filter: store.EmptyFilterKey}
	c, _ := o.Store().Cache(key)
	if !c.IsAllHistoryLoaded {
		t.Error("short second page should close history")
	}
	if got := o.Store().CacheMinMessageID(key); got != 50 {
		t.Errorf("min id = %v, want 50", got)
	}

	// exhausted history: no further fetch
	n := len(rpc.calls)
	if err := o.LoadMoreMessages(ctx, store.ChannelID(7), nil); err != nil {
		t.Fatal(err)
	}
	if len(rpc.calls) != n {
		t.Error("load-more fetched despite exhausted history")
	}
}

// A leading /command in a channel routes to command execution, not a post.
func TestPostMessageChannelCommand(t *testing.T) {
	rpc := &fakeCaller{}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	err := o.PostMessage(context.Background(), store.ChannelID(7), Draft{Body: "/archive this one"})
	if err != nil {
		t.Fatal(err)
	}

	req := rpc.last(t)
	if req.Method != "execute_command" {
		t.Fatalf("method = %q, want execute_command", req.Method)
	}
	if req.Kwargs["command"] != "archive" {
		t.Errorf("command = %v, want archive", req.Kwargs["command"])
	}
}

func TestPostMessageChannelPlain(t *testing.T) {
	rpc := &fakeCaller{}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	err := o.PostMessage(context.Background(), store.ChannelID(7), Draft{Body: "hello there"})
	if err != nil {
		t.Fatal(err)
	}

	req := rpc.last(t)
	if req.Model != "mail.channel" || req.Method != "message_post" {
		t.Fatalf("call = %s.%s", req.Model, req.Method)
	}
	// channel posts wait for the push echo instead of inserting locally
	if _, ok := o.Store().Message(store.MessageID(1)); ok {
		t.Error("channel post inserted a message locally")
	}
	c, _ := o.Store().Cache(store.CacheKey{Thread: store.ChannelID(7), Filter: store.EmptyFilterKey})
	if c.PostCount != 1 {
		t.Errorf("post count = %d, want 1", c.PostCount)
	}
}

func TestPostMessageDocumentFetchesFormat(t *testing.T) {
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		switch req.Method {
		case "message_post":
			return json.RawMessage(`81`), nil
		case "message_format":
			return json.RawMessage(`[{"id": 81, "model": "crm.lead", "res_id": 3, "body": "done"}]`), nil
		}
		return json.RawMessage(`null`), nil
	}}
	o := newTestOrchestrator(t, rpc)
	docID := o.Store().CreateThread(store.ThreadData{ID: 3, Model: "crm.lead"})

	err := o.PostMessage(context.Background(), docID, Draft{Body: "done"})
	if err != nil {
		t.Fatal(err)
	}

	m, ok := o.Store().Message(store.MessageID(81))
	if !ok {
		t.Fatal("document post did not insert the formatted message")
	}
	if !m.ThreadIDs.Contains(docID) {
		t.Error("posted message not linked to its document thread")
	}
}

func TestPostMessageEnriches(t *testing.T) {
	rpc := &fakeCaller{}
	s := store.New(nil, nil, store.Viewport{Width: 1920})
	s.InitMessaging(store.InitData{CurrentPartner: store.PartnerData{ID: 7}})
	o := New(s, rpc, upperEnricher{}, config.New(), nil)
	s.CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})

	if err := o.PostMessage(context.Background(), store.ChannelID(7), Draft{Body: "hi"}); err != nil {
		t.Fatal(err)
	}
	if got := rpc.last(t).Kwargs["body"]; got != "hi!" {
		t.Errorf("body = %v, want enriched form", got)
	}
}

func TestToggleStarOptimistic(t *testing.T) {
	rpc := &fakeCaller{handler: func(Request) (json.RawMessage, error) {
		return nil, errors.New("backend down")
	}}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	o.Store().InsertMessage(store.MessageData{ID: 10, ChannelIDs: []float64{7}})

	// remote failure must not roll back the local star
	o.ToggleStarMessage(context.Background(), store.MessageID(10))

	m, _ := o.Store().Message(store.MessageID(10))
	if !m.ThreadIDs.Contains(store.StarredID) {
		t.Error("optimistic star rolled back on remote failure")
	}
}

func TestMarkThreadAsSeen(t *testing.T) {
	rpc := &fakeCaller{}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{ID: 7, ChannelType: store.ChannelTypeChannel})
	o.Store().HandleChannelMessage(7, store.MessageData{ID: 30, Author: store.PartnerRef{ID: 42, Valid: true}})

	o.MarkThreadAsSeen(context.Background(), store.ChannelID(7))

	th, _ := o.Store().Thread(store.ChannelID(7))
	if th.UnreadCount != 0 || th.SeenMessageID != 30 {
		t.Errorf("unread=%d seen=%v", th.UnreadCount, th.SeenMessageID)
	}
	if req := rpc.last(t); req.Method != "channel_seen" || !req.Shadow {
		t.Errorf("sync call = %s shadow=%v", req.Method, req.Shadow)
	}
}

func TestCreateChatReusesExisting(t *testing.T) {
	rpc := &fakeCaller{}
	o := newTestOrchestrator(t, rpc)
	o.Store().CreateThread(store.ThreadData{
		ID:            9,
		ChannelType:   store.ChannelTypeChat,
		DirectPartner: []store.PartnerData{{ID: 42, Name: "Bob"}},
	})

	id, err := o.CreateChat(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if id != store.ChannelID(9) {
		t.Errorf("chat id = %v, want channel/9", id)
	}
	if len(rpc.calls) != 0 {
		t.Error("known chat triggered a remote call")
	}
	if !o.Store().WindowSlots().Contains(id) {
		t.Error("reused chat not docked")
	}
}

func TestFetchPartnerStatuses(t *testing.T) {
	rpc := &fakeCaller{handler: func(req Request) (json.RawMessage, error) {
		return json.RawMessage(`[{"id": 42, "im_status": "online"}]`), nil
	}}
	o := newTestOrchestrator(t, rpc)
	o.Store().InsertPartner(store.PartnerData{ID: 42, Name: "Bob"})
	o.Store().InsertPartner(store.PartnerData{ID: 43, Name: "Carol"})

	if err := o.FetchPartnerStatuses(context.Background()); err != nil {
		t.Fatal(err)
	}

	p, _ := o.Store().Partner(store.PartnerID(42))
	if p.IMStatus != store.StatusOnline {
		t.Errorf("status = %q", p.IMStatus)
	}
	p, _ = o.Store().Partner(store.PartnerID(43))
	if p.IMStatus != store.StatusUnknown {
		t.Errorf("absent partner status = %q, want unknown", p.IMStatus)
	}
}

func TestCheckPartnerIsUserCaches(t *testing.T) {
	rpc := &fakeCaller{handler: func(Request) (json.RawMessage, error) {
		return json.RawMessage(`[12]`), nil
	}}
	o := newTestOrchestrator(t, rpc)
	// a partner seen only through a message author tuple is unchecked
	o.Store().CreateMessage(store.MessageData{ID: 1, Author: store.PartnerRef{ID: 42, Name: "Bob", Valid: true}, Model: "crm.lead", ResID: 3})

	isUser, err := o.CheckPartnerIsUser(context.Background(), store.PartnerID(42))
	if err != nil {
		t.Fatal(err)
	}
	if !isUser {
		t.Error("expected partner to be a user")
	}
	n := len(rpc.calls)
	if _, err := o.CheckPartnerIsUser(context.Background(), store.PartnerID(42)); err != nil {
		t.Fatal(err)
	}
	if len(rpc.calls) != n {
		t.Error("cached answer re-queried the backend")
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		body string
		cmd  string
		ok   bool
	}{
		{"/archive", "archive", true},
		{"/archive all of it", "archive", true},
		{"/who_is_here", "who_is_here", true},
		{"plain text", "", false},
		{"/", "", false},
		{"/not-a-command", "", false},
		{"half /command", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			cmd, ok := parseCommand(tc.body)
			if cmd != tc.cmd || ok != tc.ok {
				t.Errorf("parseCommand(%q) = %q, %v; want %q, %v", tc.body, cmd, ok, tc.cmd, tc.ok)
			}
		})
	}
}
