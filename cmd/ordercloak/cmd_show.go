package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordercloak/internal/engine"
	"ordercloak/internal/parser"
)

// showCmd restores one order's details on a saved page and deletes its
// hidden record from the store. Stored hides for other orders are replayed
// first so the written page stays consistent with the store.
var showCmd = &cobra.Command{
	Use:   "show [page.html] [order-id]",
	Short: "Restore an order's details and forget its hidden record",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	path, orderID := args[0], args[1]
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	p := parser.New(logger)
	e := engine.New(doc, engine.Options{Store: st, Parser: p, Logger: logger})

	injectAll(e, p)
	if err := e.RestoreFromStore(ctx); err != nil {
		return err
	}
	if !e.IsHidden(orderID) {
		return fmt.Errorf("order %s is not hidden", orderID)
	}
	if !e.Show(ctx, orderID) {
		return fmt.Errorf("order %s could not be restored", orderID)
	}

	if err := writeDocument(doc, path); err != nil {
		return err
	}
	logger.Info("order shown", zap.String("page", path), zap.String("order_id", orderID))
	fmt.Printf("restored %s on %s\n", orderID, path)
	return nil
}
