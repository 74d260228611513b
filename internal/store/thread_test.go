package store

import "testing"

func TestCreateThreadCascade(t *testing.T) {
	s := newTestStore(t)

	id := s.CreateThread(ThreadData{
		ID:          7,
		Name:        "general",
		ChannelType: ChannelTypeChannel,
		Members:     []PartnerData{{ID: 7, Name: "Alice"}, {ID: 42, Name: "Bob"}},
	})

	th, ok := s.Thread(id)
	if !ok {
		t.Fatal("thread missing")
	}
	if !th.IsPinned {
		t.Error("new thread should be pinned")
	}
	if _, ok := s.Cache(CacheKey{Thread: id, Filter: EmptyFilterKey}); !ok {
		t.Error("default cache not created")
	}
	if !th.MemberIDs.Contains(PartnerID(42)) {
		t.Error("member links not derived")
	}
	if _, ok := s.Partner(PartnerID(42)); !ok {
		t.Error("member partner not inserted")
	}

	// create is not a patch: a second create leaves the record alone
	s.CreateThread(ThreadData{ID: 7, Name: "renamed", ChannelType: ChannelTypeChannel})
	th, _ = s.Thread(id)
	if th.Name != "general" {
		t.Errorf("create overwrote existing thread: %q", th.Name)
	}
}

func TestInsertThreadPatches(t *testing.T) {
	s := newTestStore(t)
	s.CreateThread(ThreadData{ID: 7, Name: "general", ChannelType: ChannelTypeChannel})

	unread := 4
	s.InsertThread(ThreadData{ID: 7, ChannelType: ChannelTypeChannel, UnreadCount: &unread})

	th, _ := s.Thread(ChannelID(7))
	if th.Name != "general" || th.UnreadCount != 4 {
		t.Errorf("patch semantics broken: %+v", th)
	}
}

func TestDirectPartnerDerived(t *testing.T) {
	s := newTestStore(t)
	s.CreateThread(ThreadData{
		ID:            9,
		ChannelType:   ChannelTypeChat,
		DirectPartner: []PartnerData{{ID: 42, Name: "Bob"}},
	})

	th, _ := s.Thread(ChannelID(9))
	if th.DirectPartnerID != PartnerID(42) {
		t.Errorf("direct partner = %v, want partner/42", th.DirectPartnerID)
	}
	got, ok := s.ChatWithPartner(PartnerID(42))
	if !ok || got.ID != 9 {
		t.Errorf("ChatWithPartner = %+v %v", got, ok)
	}
}

func TestMinimizeDocksWindow(t *testing.T) {
	s := newTestStore(t)
	s.CreateThread(ThreadData{ID: 7, ChannelType: ChannelTypeChannel})

	minimized := true
	s.UpdateThread(ChannelID(7), ThreadData{IsMinimized: &minimized})
	if !s.WindowSlots().Contains(ChannelID(7)) {
		t.Fatal("minimizing did not dock a window")
	}
	th, _ := s.Thread(ChannelID(7))
	if th.FoldState != FoldOpen {
		t.Errorf("fold state = %q, want open", th.FoldState)
	}

	restored := false
	s.UpdateThread(ChannelID(7), ThreadData{IsMinimized: &restored})
	if s.WindowSlots().Contains(ChannelID(7)) {
		t.Error("un-minimizing left the dock slot behind")
	}
}

func TestUnpinThread(t *testing.T) {
	s := newTestStore(t)
	s.CreateThread(ThreadData{ID: 7, ChannelType: ChannelTypeChannel})
	s.OpenThread(ChannelID(7), WindowModeLastVisible)

	s.UnpinThread(ChannelID(7))

	th, ok := s.Thread(ChannelID(7))
	if !ok {
		t.Fatal("unpinning must not delete the record")
	}
	if th.IsPinned {
		t.Error("thread still pinned")
	}
	if s.WindowSlots().Contains(ChannelID(7)) {
		t.Error("unpinned thread kept its dock slot")
	}
}

func TestSetDocumentMessageIDsResetsCache(t *testing.T) {
	s := newTestStore(t)
	id := s.CreateThread(ThreadData{ID: 3, Model: "crm.lead", Name: "Big Deal"})
	if err := s.HandleThreadLoaded(id, nil, []MessageData{
		{ID: 1, Model: "crm.lead", ResID: 3},
	}, 30); err != nil {
		t.Fatal(err)
	}

	s.SetDocumentMessageIDs(id, []float64{1, 2})

	c, _ := s.Cache(CacheKey{Thread: id, Filter: EmptyFilterKey})
	if c.IsLoaded {
		t.Error("changed id list should force a reload")
	}

	// same list again is a no-op
	s.HandleThreadLoaded(id, nil, nil, 30)
	s.SetDocumentMessageIDs(id, []float64{1, 2})
	c, _ = s.Cache(CacheKey{Thread: id, Filter: EmptyFilterKey})
	if !c.IsLoaded {
		t.Error("unchanged id list reset the cache")
	}
}
