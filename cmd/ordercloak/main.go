// Package main implements the ordercloak CLI: hide, show, and restore
// per-order details on saved order-history pages, with tags persisted in a
// local SQLite store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ordercloak/internal/config"
	"ordercloak/internal/dom"
	"ordercloak/internal/engine"
	"ordercloak/internal/logging"
	"ordercloak/internal/parser"
	"ordercloak/internal/store"
)

var (
	// Global flags
	verbose   bool
	workspace string
	dbPath    string

	// Loaded workspace configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ordercloak",
	Short: "Hide and tag order details on saved order-history pages",
	Long: `ordercloak augments saved order-history pages with per-order
hide/show controls. Hiding an order's details routes through a tagging step
whose result is persisted, so hidden orders are restored automatically the
next time the page is processed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			workspace = cwd
		}
		if err := logging.Initialize(workspace); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", err)
		}

		var err error
		cfg, err = config.Load(workspace)
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: cwd)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite store (default: <workspace>/.ordercloak/ordercloak.db)")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// openStore opens the configured SQLite store, creating the workspace data
// directory on first use. The --db flag wins over the config file.
func openStore() (*store.SQLiteStore, error) {
	path := dbPath
	if path == "" {
		path = cfg.Store.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return store.Open(path, logger)
}

// loadDocument parses a saved page file.
func loadDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", path, err)
	}
	defer f.Close()
	doc, err := dom.Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}
	return doc, nil
}

// writeDocument serializes a document back to disk.
func writeDocument(doc *dom.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write page %s: %w", path, err)
	}
	defer f.Close()
	if err := doc.Render(f); err != nil {
		return fmt.Errorf("render page %s: %w", path, err)
	}
	return nil
}

// injectAll scans the page and injects a control into every order card with
// a recognizable identifier. Returns the injected count.
func injectAll(e *engine.Engine, p *parser.OrderParser) int {
	injected := 0
	for _, root := range p.FindOrderRoots(e.Document()) {
		id := engine.ExtractOrderID(root)
		if id == "" {
			continue
		}
		if e.Inject(root, id) {
			injected++
		}
	}
	return injected
}

// signalContext returns a channel closed on SIGINT/SIGTERM.
func signalContext() chan os.Signal {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	return sig
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
