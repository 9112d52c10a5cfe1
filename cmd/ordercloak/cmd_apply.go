package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ordercloak/internal/engine"
	"ordercloak/internal/parser"
)

var applyConcurrency int

// applyCmd re-applies stored hides to one or more saved pages: inject
// controls into every order card, replay each persisted hidden order, and
// write the page back in place.
var applyCmd = &cobra.Command{
	Use:   "apply [page.html...]",
	Short: "Inject controls and restore stored hides on saved pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().IntVar(&applyConcurrency, "concurrency", 4, "pages processed in parallel")
}

func runApply(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(applyConcurrency)
	for _, path := range args {
		path := path
		g.Go(func() error {
			return applyPage(ctx, st, path)
		})
	}
	return g.Wait()
}

func applyPage(ctx context.Context, st engine.Storage, path string) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	p := parser.New(logger)
	e := engine.New(doc, engine.Options{
		Store:    st,
		Parser:   p,
		Logger:   logger,
		Debounce: time.Duration(cfg.Engine.Debounce),
	})

	injected := injectAll(e, p)
	if err := e.RestoreFromStore(ctx); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}

	if err := writeDocument(doc, path); err != nil {
		return err
	}
	logger.Info("page applied",
		zap.String("page", path),
		zap.Int("controls", injected),
		zap.Int("hidden", len(e.HiddenTokens())))
	fmt.Printf("%s: %d controls injected, %d orders hidden\n", path, injected, len(e.HiddenTokens()))
	return nil
}
