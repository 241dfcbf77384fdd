package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"hirescore/internal/errors"
)

func TestNewPromptWatcherDisabled(t *testing.T) {
	logger, _ := errors.New("debug")

	cfg := &Config{}
	cfg.AI.Prompts.Watch = false
	cfg.AI.Prompts.EvaluationFile = "somewhere.txt"
	if w := NewPromptWatcher(cfg, logger); w != nil {
		t.Error("expected nil watcher when watching is disabled")
	}

	cfg = &Config{}
	cfg.AI.Prompts.Watch = true
	if w := NewPromptWatcher(cfg, logger); w != nil {
		t.Error("expected nil watcher when no override files are configured")
	}
}

func TestPromptWatcherReloadsOnRewrite(t *testing.T) {
	logger, _ := errors.New("debug")

	dir := t.TempDir()
	file := filepath.Join(dir, "evaluation.txt")
	if err := os.WriteFile(file, []byte("first template"), 0o600); err != nil {
		t.Fatalf("failed to write override file: %v", err)
	}

	cfg := &Config{}
	cfg.AI.Prompts.Watch = true
	cfg.AI.Prompts.EvaluationFile = file
	cfg.AI.Prompts.DebounceDelay = 20 * time.Millisecond

	if err := cfg.loadPromptOverrides(); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	if got := GetPromptOverrides().Evaluation; got != "first template" {
		t.Fatalf("evaluation override = %q, want %q", got, "first template")
	}

	watcher := NewPromptWatcher(cfg, logger)
	if watcher == nil {
		t.Fatal("expected a watcher for a configured override file")
	}

	var reloads atomic.Int64
	watcher.SetReloadHook(func() { reloads.Add(1) })

	if err := watcher.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			t.Errorf("failed to stop watcher: %v", err)
		}
	}()

	// A rewrite must land in the override store without a restart.
	if err := os.WriteFile(file, []byte("second template"), 0o600); err != nil {
		t.Fatalf("failed to rewrite override file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if GetPromptOverrides().Evaluation == "second template" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := GetPromptOverrides().Evaluation; got != "second template" {
		t.Fatalf("evaluation override = %q, want the rewritten template", got)
	}
	if reloads.Load() == 0 {
		t.Error("reload hook was never invoked")
	}
}
