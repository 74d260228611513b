package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/store"
)

// CreateChannel asks the backend for a new channel and mirrors it locally.
// Channels arriving minimized get their dock slot through the create
// cascade.
func (o *Orchestrator) CreateChannel(ctx context.Context, name, visibility string) (store.LocalID, error) {
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "channel_create",
		Args:   []any{name, visibility},
	})
	if err != nil {
		return store.LocalID{}, fmt.Errorf("creating channel %q: %w", name, err)
	}
	var data store.ThreadData
	if err := json.Unmarshal(raw, &data); err != nil {
		return store.LocalID{}, fmt.Errorf("decoding channel %q: %w", name, err)
	}
	return o.store.CreateThread(data), nil
}

// CreateChat opens a direct-message conversation with a partner, reusing
// the existing chat when one is already known.
func (o *Orchestrator) CreateChat(ctx context.Context, partnerID float64) (store.LocalID, error) {
	if th, ok := o.store.ChatWithPartner(store.PartnerID(partnerID)); ok {
		id := th.LocalID()
		o.store.OpenThread(id, store.WindowModeLastVisible)
		return id, nil
	}
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "channel_get",
		Args:   []any{[]float64{partnerID}},
	})
	if err != nil {
		return store.LocalID{}, fmt.Errorf("creating chat with partner %v: %w", partnerID, err)
	}
	var data store.ThreadData
	if err := json.Unmarshal(raw, &data); err != nil {
		return store.LocalID{}, fmt.Errorf("decoding chat payload: %w", err)
	}
	id := o.store.InsertThread(data)
	o.store.OpenThread(id, store.WindowModeLastVisible)
	return id, nil
}

// JoinChannel subscribes the current user to a channel. Already-known
// channels are a no-op.
func (o *Orchestrator) JoinChannel(ctx context.Context, channelID float64) (store.LocalID, error) {
	id := store.ChannelID(channelID)
	if _, ok := o.store.Thread(id); ok {
		return id, nil
	}
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "channel_join_and_get_info",
		Args:   []any{[]float64{channelID}},
	})
	if err != nil {
		return store.LocalID{}, fmt.Errorf("joining channel %v: %w", channelID, err)
	}
	var data store.ThreadData
	if err := json.Unmarshal(raw, &data); err != nil {
		return store.LocalID{}, fmt.Errorf("decoding channel info: %w", err)
	}
	return o.store.InsertThread(data), nil
}

// LoadThreadCache performs the initial history fetch for a thread's
// filter-scoped cache. Already-loaded and in-flight caches are skipped;
// the loading flag is a single-flight guard, not a lock, so the data is
// not necessarily present when the call returns on a concurrent load.
func (o *Orchestrator) LoadThreadCache(ctx context.Context, threadID store.LocalID, filter store.Filter) error {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return fmt.Errorf("loading cache: unknown thread %s", threadID)
	}
	key, err := o.store.CreateThreadCache(threadID, filter)
	if err != nil {
		return err
	}
	c, _ := o.store.Cache(key)
	if c.IsLoaded || c.IsLoading {
		return nil
	}
	o.store.SetCacheLoading(key, true)

	if !store.IsConversationKind(threadID.Kind) {
		return o.loadDocumentMessages(ctx, th, key, filter)
	}

	msgs, err := o.fetchMessages(ctx, o.extendFilter(th, filter), o.cfg.FetchLimit)
	if err != nil {
		o.store.SetCacheLoading(key, false)
		return fmt.Errorf("loading thread %s: %w", threadID, err)
	}
	return o.store.HandleThreadLoaded(threadID, filter, msgs, o.cfg.FetchLimit)
}

// LoadMoreMessages fetches the page of history older than what the cache
// already holds. No-op when a load-more is in flight or history is
// exhausted.
func (o *Orchestrator) LoadMoreMessages(ctx context.Context, threadID store.LocalID, filter store.Filter) error {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return fmt.Errorf("loading more: unknown thread %s", threadID)
	}
	key := store.CacheKey{Thread: threadID, Filter: filter.Key()}
	c, ok := o.store.Cache(key)
	if !ok {
		return o.LoadThreadCache(ctx, threadID, filter)
	}
	if c.IsAllHistoryLoaded || c.IsLoadingMore {
		return nil
	}
	o.store.SetCacheLoadingMore(key, true)

	domain := o.extendFilter(th, filter)
	if minID := o.store.CacheMinMessageID(key); minID > 0 {
		domain = append(store.Filter{{Field: "id", Op: "<", Value: minID}}, domain...)
	}
	msgs, err := o.fetchMessages(ctx, domain, o.cfg.FetchLimit)
	if err != nil {
		o.store.SetCacheLoadingMore(key, false)
		return fmt.Errorf("loading more of thread %s: %w", threadID, err)
	}
	return o.store.HandleThreadLoaded(threadID, filter, msgs, o.cfg.FetchLimit)
}

func (o *Orchestrator) fetchMessages(ctx context.Context, domain store.Filter, limit int) ([]store.MessageData, error) {
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "message_fetch",
		Args:   []any{domain},
		Kwargs: map[string]any{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	var msgs []store.MessageData
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decoding message page: %w", err)
	}
	return msgs, nil
}

// loadDocumentMessages loads a document thread by its explicit id list
// instead of a query filter, newest ids first up to the page size.
func (o *Orchestrator) loadDocumentMessages(ctx context.Context, th store.Thread, key store.CacheKey, filter store.Filter) error {
	ids := th.ExplicitMessageIDs
	if len(ids) > o.cfg.FetchLimit {
		ids = ids[:o.cfg.FetchLimit]
	}
	threadID := th.LocalID()
	if len(ids) == 0 {
		return o.store.HandleThreadLoaded(threadID, filter, nil, o.cfg.FetchLimit)
	}
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "message_format",
		Args:   []any{ids},
	})
	if err != nil {
		o.store.SetCacheLoading(key, false)
		return fmt.Errorf("loading document thread %s: %w", threadID, err)
	}
	var msgs []store.MessageData
	if err := json.Unmarshal(raw, &msgs); err != nil {
		o.store.SetCacheLoading(key, false)
		return fmt.Errorf("decoding document messages: %w", err)
	}
	return o.store.HandleThreadLoaded(threadID, filter, msgs, o.cfg.FetchLimit)
}

// extendFilter prepends the thread-scoping condition to a user filter:
// channels scope by channel id, mailboxes by their flag.
func (o *Orchestrator) extendFilter(th store.Thread, filter store.Filter) store.Filter {
	var scope store.Condition
	switch th.LocalID() {
	case store.InboxID:
		scope = store.Condition{Field: "needaction", Op: "=", Value: true}
	case store.StarredID:
		scope = store.Condition{Field: "starred", Op: "=", Value: true}
	case store.HistoryID:
		scope = store.Condition{Field: "needaction", Op: "=", Value: false}
	default:
		scope = store.Condition{Field: "channel_ids", Op: "in", Value: []float64{th.ID}}
	}
	return append(store.Filter{scope}, filter...)
}

// MarkThreadAsSeen zeroes the unread counter locally and best-effort
// reports the watermark for channels.
func (o *Orchestrator) MarkThreadAsSeen(ctx context.Context, threadID store.LocalID) {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return
	}
	var lastID float64
	if n := len(th.MessageIDs); n > 0 {
		lastID = th.MessageIDs[n-1].ID
	}
	o.store.MarkThreadSeenLocal(threadID, lastID)
	if threadID.Kind != store.KindChannel {
		return
	}
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "channel_seen",
		Args:   []any{[]float64{th.ID}},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("channel seen sync failed", zap.Float64("channel", th.ID), zap.Error(err))
	}
}

// RenameThread records a custom chat name locally and best-effort syncs it.
func (o *Orchestrator) RenameThread(ctx context.Context, threadID store.LocalID, name string) {
	o.store.RenameThreadLocal(threadID, name)
	th, ok := o.store.Thread(threadID)
	if !ok || th.ChannelType != store.ChannelTypeChat {
		return
	}
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "channel_set_custom_name",
		Args:   []any{th.ID},
		Kwargs: map[string]any{"name": name},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("rename sync failed", zap.Float64("channel", th.ID), zap.Error(err))
	}
}

// SetThreadFoldState folds or unfolds a docked window locally and
// best-effort syncs the state for channels.
func (o *Orchestrator) SetThreadFoldState(ctx context.Context, threadID store.LocalID, state string) {
	o.store.UpdateThread(threadID, store.ThreadData{FoldState: state})
	o.syncChannelState(ctx, threadID, "channel_fold", map[string]any{"state": state})
}

// SetThreadMinimized docks or undocks a thread locally and best-effort
// syncs the state for channels.
func (o *Orchestrator) SetThreadMinimized(ctx context.Context, threadID store.LocalID, minimized bool) {
	o.store.UpdateThread(threadID, store.ThreadData{IsMinimized: &minimized})
	o.syncChannelState(ctx, threadID, "channel_minimize", map[string]any{"minimized": minimized})
}

func (o *Orchestrator) syncChannelState(ctx context.Context, threadID store.LocalID, method string, kwargs map[string]any) {
	th, ok := o.store.Thread(threadID)
	if !ok || threadID.Kind != store.KindChannel || th.UUID == "" {
		return
	}
	kwargs["uuid"] = th.UUID
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: method,
		Kwargs: kwargs,
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("channel state sync failed",
			zap.String("method", method), zap.Float64("channel", th.ID), zap.Error(err))
	}
}

// UnsubscribeFromChannel leaves a channel (or unpins a chat). The local
// unpin is optimistic; the notification channel confirms it.
func (o *Orchestrator) UnsubscribeFromChannel(ctx context.Context, threadID store.LocalID) error {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return nil
	}
	o.store.UnpinThread(threadID)
	var req Request
	if th.ChannelType == store.ChannelTypeChat {
		req = Request{
			Model:  "mail.channel",
			Method: "channel_pin",
			Kwargs: map[string]any{"uuid": th.UUID, "pinned": false},
		}
	} else {
		req = Request{
			Model:  "mail.channel",
			Method: "action_unfollow",
			Args:   []any{[]float64{th.ID}},
		}
	}
	if _, err := o.rpc.Call(ctx, req); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", threadID, err)
	}
	return nil
}
