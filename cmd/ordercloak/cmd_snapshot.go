package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordercloak/internal/engine"
)

var (
	snapshotOut     string
	snapshotTimeout time.Duration
)

// snapshotCmd captures a live order-history page to a local HTML file, which
// the other commands then operate on. URLs that do not look like an
// order-history listing are refused up front.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [url]",
	Short: "Capture a live order-history page to a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "orders.html", "output file")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 60*time.Second, "page load timeout")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	url := args[0]
	if !engine.SupportsPage(url) {
		return fmt.Errorf("%s does not look like an order-history page", url)
	}

	browser := rod.New().Timeout(snapshotTimeout)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("read page html: %w", err)
	}

	if err := os.WriteFile(snapshotOut, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("page captured", zap.String("url", url), zap.String("out", snapshotOut))
	fmt.Printf("captured %s -> %s\n", url, snapshotOut)
	return nil
}
