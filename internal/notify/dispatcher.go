package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/actions"
	"github.com/matheus3301/mailmirror/internal/store"
)

// Dispatcher routes decoded notifications into the store, going through
// the orchestrator when folding an item needs a remote call (joining an
// unknown channel, opening a chat on user connection).
type Dispatcher struct {
	store *store.Store
	orch  *actions.Orchestrator
	log   *zap.Logger
}

// New creates a dispatcher.
func New(s *store.Store, orch *actions.Orchestrator, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: s, orch: orch, log: log}
}

// HandleBatch decodes and applies one push batch in order. An unsubscribe
// for a channel drops every other notification about that channel from the
// same batch, so a stale concurrent update cannot resurrect a conversation
// the user just left.
func (d *Dispatcher) HandleBatch(ctx context.Context, raw json.RawMessage) error {
	items, err := DecodeBatch(raw)
	if err != nil {
		return err
	}
	for _, item := range dropUnsubscribed(items) {
		d.dispatch(ctx, item)
	}
	return nil
}

// dropUnsubscribed applies the unsubscribe precedence pre-filter.
func dropUnsubscribed(items []Item) []Item {
	left := make(map[float64]bool)
	for _, item := range items {
		if u, ok := item.Notification.(Unsubscribe); ok {
			left[u.ChannelID] = true
		}
	}
	if len(left) == 0 {
		return items
	}
	kept := items[:0]
	for _, item := range items {
		if left[channelOf(item)] {
			if _, ok := item.Notification.(Unsubscribe); !ok {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}

// channelOf returns the channel a notification talks about, or 0.
func channelOf(item Item) float64 {
	switch n := item.Notification.(type) {
	case ChannelMessage:
		return n.ChannelID
	case ChannelSeen:
		return n.ChannelID
	case ChannelState:
		return n.Thread.ID
	case Unsubscribe:
		return n.ChannelID
	default:
		if item.TargetKind == targetChannel {
			return item.TargetID
		}
		return 0
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, item Item) {
	switch n := item.Notification.(type) {
	case ChannelMessage:
		d.handleChannelMessage(ctx, n)
	case ChannelSeen:
		d.store.HandleChannelSeen(n.ChannelID, n.PartnerID, n.LastMessageID)
	case MarkAsRead:
		d.store.HandleMarkAsRead(n.MessageIDs)
	case ToggleStar:
		d.store.HandleToggleStar(n.MessageIDs, n.Starred)
	case TransientMessage:
		d.store.HandleTransientMessage(d.store.DiscussState().ActiveThreadID, n.Message)
	case Unsubscribe:
		d.store.UnpinThread(store.ChannelID(n.ChannelID))
	case UserConnection:
		if err := d.orch.HandleUserConnection(ctx, n.PartnerID, n.Name); err != nil {
			d.log.Warn("user connection handling failed",
				zap.Float64("partner", n.PartnerID), zap.Error(err))
		}
	case ChannelState:
		d.store.InsertThread(n.Thread)
	case Needaction:
		d.store.HandleNeedaction(n.Message)
	case Ignored:
		d.log.Debug("ignoring notification",
			zap.String("kind", item.TargetKind), zap.String("reason", n.Reason))
	}
}

// handleChannelMessage folds a channel post, first joining the channel
// when the message targets one the store does not know yet.
func (d *Dispatcher) handleChannelMessage(ctx context.Context, n ChannelMessage) {
	if _, ok := d.store.Thread(store.ChannelID(n.ChannelID)); !ok {
		if _, err := d.orch.JoinChannel(ctx, n.ChannelID); err != nil {
			d.log.Warn("joining pushed channel failed",
				zap.Float64("channel", n.ChannelID), zap.Error(err))
		}
	}
	if bySelf := d.store.HandleChannelMessage(n.ChannelID, n.Message); bySelf {
		d.orch.MarkThreadAsSeen(ctx, store.ChannelID(n.ChannelID))
	}
}
