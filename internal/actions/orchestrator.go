package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/store"
)

// Orchestrator runs the asynchronous flows: it calls the remote backend
// through the Caller, then folds results into the store through the store's
// mutation methods. It never touches store internals directly.
//
// Error policy: user-initiated fetches propagate failures to the caller;
// fire-and-forget synchronization (star toggles, fold state, presence)
// swallows failures and leaves the optimistic local state standing until a
// later notification corrects it.
type Orchestrator struct {
	store  *store.Store
	rpc    Caller
	enrich Enricher
	cfg    *config.Config
	log    *zap.Logger
}

// New creates an orchestrator. The enricher may be nil, in which case
// bodies are posted as written.
func New(s *store.Store, rpc Caller, enrich Enricher, cfg *config.Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{store: s, rpc: rpc, enrich: enrich, cfg: cfg, log: log}
}

// Store exposes the underlying store for read access and local-only
// mutations (dock manipulation, viewport resize).
func (o *Orchestrator) Store() *store.Store { return o.store }

// InitMessaging fetches the startup snapshot and seeds the store from it.
func (o *Orchestrator) InitMessaging(ctx context.Context) error {
	raw, err := o.rpc.Call(ctx, Request{Route: "/mail/init_messaging", Shadow: true})
	if err != nil {
		return fmt.Errorf("fetching init snapshot: %w", err)
	}
	var data store.InitData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decoding init snapshot: %w", err)
	}
	o.store.InitMessaging(data)
	o.log.Info("messaging initialized",
		zap.Int("channels", len(data.ChannelSlots.Channel)+
			len(data.ChannelSlots.DirectMessage)+
			len(data.ChannelSlots.PrivateGroup)))
	return nil
}

// FetchPartnerStatuses polls presence for every partner worth polling and
// folds the response into the store.
func (o *Orchestrator) FetchPartnerStatuses(ctx context.Context) error {
	ids := o.store.PresencePartnerIDs()
	if len(ids) == 0 {
		return nil
	}
	raw, err := o.rpc.Call(ctx, Request{
		Route:  "/longpolling/im_status",
		Params: map[string]any{"partner_ids": ids},
		Shadow: true,
	})
	if err != nil {
		return fmt.Errorf("polling presence: %w", err)
	}
	var statuses []store.PartnerStatus
	if err := json.Unmarshal(raw, &statuses); err != nil {
		return fmt.Errorf("decoding presence response: %w", err)
	}
	o.store.ApplyPresence(ids, statuses)
	return nil
}

// RunPresenceLoop polls presence until the context is canceled. The next
// cycle is armed a fixed delay after the previous one finished, so slow
// responses throttle the loop instead of piling up.
func (o *Orchestrator) RunPresenceLoop(ctx context.Context) {
	for {
		if err := o.FetchPartnerStatuses(ctx); err != nil {
			o.log.Debug("presence poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.PresenceInterval()):
		}
	}
}
