package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hirescore/internal/errors"
)

// PromptOverrides holds prompt template content loaded from override files.
// Empty fields mean the built-in template is used.
type PromptOverrides struct {
	System     string
	Evaluation string
	Matching   string
	Questions  string
	Turnover   string
}

var (
	promptOverrides   PromptOverrides
	promptOverridesMu sync.RWMutex
)

// GetPromptOverrides returns a snapshot of the loaded prompt overrides.
func GetPromptOverrides() PromptOverrides {
	promptOverridesMu.RLock()
	defer promptOverridesMu.RUnlock()
	return promptOverrides
}

// loadPromptOverrides reads every configured override file into the
// package-level override store. Missing or empty files are errors: a
// configured override that cannot be loaded should fail fast rather
// than silently fall back to the built-in template.
func (c *Config) loadPromptOverrides() error {
	loaded := PromptOverrides{}

	files := []struct {
		path   string
		target *string
		name   string
	}{
		{c.AI.Prompts.SystemFile, &loaded.System, "system"},
		{c.AI.Prompts.EvaluationFile, &loaded.Evaluation, "evaluation"},
		{c.AI.Prompts.MatchingFile, &loaded.Matching, "matching"},
		{c.AI.Prompts.QuestionsFile, &loaded.Questions, "questions"},
		{c.AI.Prompts.TurnoverFile, &loaded.Turnover, "turnover"},
	}

	for _, f := range files {
		if f.path == "" {
			continue
		}
		content, err := loadPromptFile(f.path, f.name)
		if err != nil {
			return err
		}
		*f.target = content
	}

	promptOverridesMu.Lock()
	promptOverrides = loaded
	promptOverridesMu.Unlock()

	return nil
}

// loadPromptFile reads and validates a single prompt override file.
func loadPromptFile(path, name string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path for %s prompt file '%s': %w", name, path, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", name, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", name, absPath)
	}

	return trimmed, nil
}

// promptFiles returns the configured override file paths, without empties.
func (c *Config) promptFiles() []string {
	var files []string
	for _, f := range []string{
		c.AI.Prompts.SystemFile,
		c.AI.Prompts.EvaluationFile,
		c.AI.Prompts.MatchingFile,
		c.AI.Prompts.QuestionsFile,
		c.AI.Prompts.TurnoverFile,
	} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// PromptWatcher watches prompt override files for changes and reloads
// them with a debounce, so that editing a template does not require a
// restart.
type PromptWatcher struct {
	mu sync.Mutex

	config *Config
	files  []string

	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger *errors.Logger

	onReload func()

	running bool
}

// SetReloadHook registers a callback invoked after each successful
// override reload.
func (pw *PromptWatcher) SetReloadHook(fn func()) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.onReload = fn
}

// NewPromptWatcher creates a watcher for the configured prompt override
// files. Returns nil when watching is disabled or no files are configured.
func NewPromptWatcher(cfg *Config, logger *errors.Logger) *PromptWatcher {
	if !cfg.AI.Prompts.Watch {
		return nil
	}
	files := cfg.promptFiles()
	if len(files) == 0 {
		return nil
	}

	delay := cfg.AI.Prompts.DebounceDelay
	if delay == 0 {
		delay = time.Second
	}

	return &PromptWatcher{
		config:        cfg,
		files:         files,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: delay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start begins watching the override files for changes.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	for _, file := range pw.files {
		if stat, statErr := os.Stat(file); statErr == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
		if addErr := pw.addFile(file); addErr != nil && pw.logger != nil {
			pw.logger.Warn("Failed to watch prompt file", "file", file, "error", addErr)
		}
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started",
			"files", pw.files,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the prompt file watcher.
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	if pw.fsWatcher != nil {
		if err := pw.fsWatcher.Close(); err != nil {
			if pw.logger != nil {
				pw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	pw.running = false

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher stopped")
	}
	return nil
}

// addFile watches a file and its directory to catch atomic writes.
func (pw *PromptWatcher) addFile(file string) error {
	if err := pw.fsWatcher.Add(file); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
	}

	dir := filepath.Dir(file)
	if err := pw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

// watchLoop is the main event loop for file watching
func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt file watcher error")
			}

		case <-pw.reloadChan:
			if pw.hasAnyFileChanged() {
				if reloadErr := pw.config.loadPromptOverrides(); reloadErr != nil {
					if pw.logger != nil {
						pw.logger.LogError(reloadErr, "Failed to reload prompt overrides, keeping previous templates")
					}
				} else {
					if pw.logger != nil {
						pw.logger.Info("Prompt override files reloaded")
					}
					pw.mu.Lock()
					hook := pw.onReload
					pw.mu.Unlock()
					if hook != nil {
						hook()
					}
				}
			}

		case <-pw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	matched := slices.ContainsFunc(pw.files, func(file string) bool {
		return event.Name == file || filepath.Base(event.Name) == filepath.Base(file)
	})
	if !matched {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasAnyFileChanged checks if any of the watched files have changed
func (pw *PromptWatcher) hasAnyFileChanged() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	changed := false
	for _, file := range pw.files {
		stat, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				if _, exists := pw.lastModTime[file]; exists {
					delete(pw.lastModTime, file)
					changed = true
				}
			}
			continue
		}
		lastMod, exists := pw.lastModTime[file]
		if !exists || stat.ModTime().After(lastMod) {
			pw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

// scheduleReload schedules a debounced reload
func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}
