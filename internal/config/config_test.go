package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.FetchLimit != DefaultFetchLimit {
		t.Errorf("FetchLimit = %d, want %d", cfg.FetchLimit, DefaultFetchLimit)
	}
	if cfg.PresenceInterval() != time.Duration(DefaultPresencePollSeconds)*time.Second {
		t.Errorf("PresenceInterval = %v", cfg.PresenceInterval())
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailmirror.toml")

	cfg := New()
	cfg.FetchLimit = 10
	cfg.Mobile = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.FetchLimit != 10 {
		t.Errorf("FetchLimit = %d, want 10", loaded.FetchLimit)
	}
	if !loaded.Mobile {
		t.Error("Mobile = false, want true")
	}
	// Unset fields come back with defaults.
	if loaded.ViewportWidth != DefaultViewportWidth {
		t.Errorf("ViewportWidth = %d, want %d", loaded.ViewportWidth, DefaultViewportWidth)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/mailmirror.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}
