package messaging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/mailmirror/internal/actions"
	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/notify"
	"github.com/matheus3301/mailmirror/internal/store"
)

// fakeCaller answers init and presence requests the way the backend would.
type fakeCaller struct {
	mu    sync.Mutex
	calls []actions.Request
}

func (f *fakeCaller) Call(_ context.Context, req actions.Request) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	switch req.Route {
	case "/mail/init_messaging":
		return json.RawMessage(`{
			"current_partner": {"id": 7, "name": "Alice"},
			"needaction_inbox_counter": 2,
			"starred_counter": 1,
			"channel_slots": {
				"channel_channel": [{"id": 1, "name": "general", "channel_type": "channel"}],
				"channel_direct_message": [],
				"channel_private_group": []
			}
		}`), nil
	case "/longpolling/im_status":
		return json.RawMessage(`[{"id": 7, "im_status": "online"}]`), nil
	}
	return json.RawMessage(`[]`), nil
}

func (f *fakeCaller) routes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Route)
	}
	return out
}

func TestProvidersResolve(t *testing.T) {
	logger, err := provideLogger(Params{})
	if err != nil {
		t.Fatalf("provideLogger() error = %v", err)
	}
	cfg := provideConfig(Params{})
	if cfg.FetchLimit != config.New().FetchLimit {
		t.Errorf("config fetch limit = %d, want default %d", cfg.FetchLimit, config.New().FetchLimit)
	}

	b := provideBus()
	s := provideStore(b, cfg, logger)
	orch := provideOrchestrator(Params{RPC: &fakeCaller{}}, s, cfg, logger)
	if orch.Store() != s {
		t.Error("orchestrator must wrap the provided store")
	}
	if d := provideDispatcher(s, orch, logger); d == nil {
		t.Error("provideDispatcher() returned nil")
	}
}

func TestProvideConfigKeepsSupplied(t *testing.T) {
	cfg := config.New()
	cfg.FetchLimit = 5
	got := provideConfig(Params{Config: cfg})
	if got != cfg {
		t.Error("supplied config must be used as-is")
	}
}

func TestModuleLifecycle(t *testing.T) {
	rpc := &fakeCaller{}

	var s *store.Store
	var d *notify.Dispatcher
	app := fx.New(
		Module(Params{RPC: rpc}),
		fx.Populate(&s, &d),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		t.Fatalf("dependency graph error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		if err := app.Stop(ctx); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}()

	// Startup must have fetched the init snapshot and seeded the store.
	routes := rpc.routes()
	if len(routes) == 0 || routes[0] != "/mail/init_messaging" {
		t.Fatalf("first call routes = %v, want /mail/init_messaging first", routes)
	}

	inbox, ok := s.Thread(store.InboxID)
	if !ok {
		t.Fatal("inbox mailbox missing after start")
	}
	if inbox.Counter != 2 {
		t.Errorf("inbox counter = %d, want 2", inbox.Counter)
	}
	if _, ok := s.Thread(store.LocalID{Kind: store.KindChannel, ID: 1}); !ok {
		t.Error("channel slot from init snapshot missing")
	}

	// Incoming notifications flow through the populated dispatcher.
	batch := json.RawMessage(`[
		[["db", "channel", 1], {"id": 50, "body": "hi", "author_id": [9, "Bob"], "channel_ids": [1]}]
	]`)
	if err := d.HandleBatch(context.Background(), batch); err != nil {
		t.Fatalf("HandleBatch() error = %v", err)
	}
	if _, ok := s.Message(store.MessageID(50)); !ok {
		t.Error("dispatched channel message missing from store")
	}
}

func TestModuleNotificationChannel(t *testing.T) {
	rpc := &fakeCaller{}
	pushes := make(chan json.RawMessage, 1)

	var s *store.Store
	app := fx.New(
		Module(Params{RPC: rpc, Notifications: pushes}),
		fx.Populate(&s),
		fx.NopLogger,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = app.Stop(ctx) }()

	pushes <- json.RawMessage(`[
		[["db", "channel", 1], {"id": 60, "body": "pushed", "author_id": [9, "Bob"], "channel_ids": [1]}]
	]`)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.Message(store.MessageID(60)); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pushed message never reached the store")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestModuleGraphValidates(t *testing.T) {
	err := fx.ValidateApp(
		Module(Params{RPC: &fakeCaller{}}),
		fx.NopLogger,
	)
	if err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}

func TestProvideLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.log")
	logger, err := provideLogger(Params{LogPath: path})
	if err != nil {
		t.Fatalf("provideLogger() error = %v", err)
	}
	logger.Info("startup check")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file empty after write")
	}
}
