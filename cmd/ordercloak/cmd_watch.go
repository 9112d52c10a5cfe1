package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordercloak/internal/engine"
)

var watchDebounce time.Duration

// watchCmd watches saved pages on disk and re-applies stored hides whenever
// the host page is rewritten, the filesystem analogue of the in-page
// mutation watcher. Rewrites arrive as bursts of events; the debounce
// collapses each burst into one apply pass.
var watchCmd = &cobra.Command{
	Use:   "watch [page.html...]",
	Short: "Re-apply stored hides whenever a saved page changes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet window before re-applying")
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(args))
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		// Watch the directory: editors and savers replace files, and a
		// watch on the file itself dies with the old inode.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
	}

	debouncers := make(map[string]*engine.Debouncer, len(watched))
	for path := range watched {
		debouncers[path] = engine.NewDebouncer(watchDebounce)
	}

	var applyMu sync.Mutex
	applying := make(map[string]bool)
	reapply := func(path string) {
		// Skip the event storm caused by our own write-back.
		applyMu.Lock()
		if applying[path] {
			applying[path] = false
			applyMu.Unlock()
			return
		}
		applying[path] = true
		applyMu.Unlock()

		if err := applyPage(cmd.Context(), st, path); err != nil {
			logger.Error("re-apply failed", zap.String("page", path), zap.Error(err))
			applyMu.Lock()
			applying[path] = false
			applyMu.Unlock()
		}
	}

	logger.Info("watching pages", zap.Int("count", len(watched)))
	fmt.Printf("watching %d page(s), ctrl-c to stop\n", len(watched))

	sig := signalContext()
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			debouncers[abs].Debounce(func() { reapply(abs) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))
		case <-sig:
			for _, d := range debouncers {
				d.Cancel()
			}
			logger.Info("watch stopped")
			return nil
		}
	}
}
