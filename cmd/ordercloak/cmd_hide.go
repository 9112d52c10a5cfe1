package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordercloak/internal/dialog"
	"ordercloak/internal/engine"
	"ordercloak/internal/parser"
)

var (
	hideTags  []string
	hideNotes string
	hideUser  string
)

// hideCmd hides one order's details on a saved page. The tagging step is
// satisfied non-interactively with the --tag/--notes flags; omitting them
// re-confirms whatever tags the order already carries.
var hideCmd = &cobra.Command{
	Use:   "hide [page.html] [order-id]",
	Short: "Hide an order's details, tagging it in the store",
	Args:  cobra.ExactArgs(2),
	RunE:  runHide,
}

func init() {
	hideCmd.Flags().StringSliceVarP(&hideTags, "tag", "t", nil, "tag to record (repeatable)")
	hideCmd.Flags().StringVar(&hideNotes, "notes", "", "notes to record")
	hideCmd.Flags().StringVar(&hideUser, "user", "", "username recorded on the overlay")
}

func runHide(cmd *cobra.Command, args []string) error {
	path, orderID := args[0], args[1]
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	user := hideUser
	if user == "" {
		user = cfg.User.Name
	}
	if user != "" {
		if err := st.Set(ctx, "username", user); err != nil {
			return err
		}
	}

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	p := parser.New(logger)
	e := engine.New(doc, engine.Options{Store: st, Parser: p, Logger: logger})
	e.SetDialog(dialog.NewAutoConfirm(e, hideTags, hideNotes, logger))

	injectAll(e, p)
	if !e.Hide(ctx, orderID) {
		return fmt.Errorf("order %s could not be hidden (not on page, or already hidden)", orderID)
	}

	if err := writeDocument(doc, path); err != nil {
		return err
	}
	logger.Info("order hidden", zap.String("page", path), zap.String("order_id", orderID))
	fmt.Printf("hidden %s on %s\n", orderID, path)
	return nil
}
