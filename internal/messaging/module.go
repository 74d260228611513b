// Package messaging assembles the data layer: store, bus, orchestrator and
// dispatcher wired together with lifecycle hooks. The host embeds it into
// its fx application and supplies the remote collaborators.
package messaging

import (
	"context"
	"encoding/json"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/actions"
	"github.com/matheus3301/mailmirror/internal/bus"
	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/logging"
	"github.com/matheus3301/mailmirror/internal/notify"
	"github.com/matheus3301/mailmirror/internal/store"
)

// Params holds what the host must (or may) supply to the module.
type Params struct {
	// RPC is the remote request/response collaborator. Required.
	RPC actions.Caller
	// Enricher transforms draft bodies before posting; nil posts them as
	// written.
	Enricher actions.Enricher
	// Config may be nil, meaning all defaults.
	Config *config.Config
	// LogPath is the log file location; empty disables logging.
	LogPath string
	// Notifications carries raw push batches from the host's transport.
	// Nil means the host calls Dispatcher.HandleBatch itself.
	Notifications <-chan json.RawMessage
}

// Module returns the fx module, composing all providers and lifecycle
// hooks. On start it fetches the init snapshot and launches the presence
// loop; on stop the loop is canceled.
func Module(p Params) fx.Option {
	return fx.Module("messaging",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStore,
			provideOrchestrator,
			provideDispatcher,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if p.LogPath == "" {
		return zap.NewNop(), nil
	}
	return logging.New(p.LogPath)
}

func provideConfig(p Params) *config.Config {
	if p.Config != nil {
		return p.Config
	}
	return config.New()
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(b *bus.Bus, cfg *config.Config, logger *zap.Logger) *store.Store {
	return store.New(b, logger, store.Viewport{
		Width:    cfg.ViewportWidth,
		Height:   cfg.ViewportHeight,
		IsMobile: cfg.Mobile,
	})
}

func provideOrchestrator(p Params, s *store.Store, cfg *config.Config, logger *zap.Logger) *actions.Orchestrator {
	return actions.New(s, p.RPC, p.Enricher, cfg, logger)
}

func provideDispatcher(s *store.Store, orch *actions.Orchestrator, logger *zap.Logger) *notify.Dispatcher {
	return notify.New(s, orch, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, orch *actions.Orchestrator, disp *notify.Dispatcher, logger *zap.Logger) {
	var cancelLoops context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := orch.InitMessaging(ctx); err != nil {
				return err
			}
			loopCtx, cancel := context.WithCancel(context.Background())
			cancelLoops = cancel
			go orch.RunPresenceLoop(loopCtx)
			if p.Notifications != nil {
				go drainNotifications(loopCtx, p.Notifications, disp, logger)
			}
			logger.Info("messaging layer started")
			return nil
		},
		OnStop: func(context.Context) error {
			if cancelLoops != nil {
				cancelLoops()
			}
			logger.Info("messaging layer stopped")
			return nil
		},
	})
}

func drainNotifications(ctx context.Context, in <-chan json.RawMessage, disp *notify.Dispatcher, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-in:
			if !ok {
				return
			}
			if err := disp.HandleBatch(ctx, batch); err != nil {
				logger.Warn("notification batch rejected", zap.Error(err))
			}
		}
	}
}
