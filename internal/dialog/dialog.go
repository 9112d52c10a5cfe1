// Package dialog provides tagging-dialog collaborators for the engine. The
// engine never applies a hide until a dialog confirms it; AutoConfirm is the
// non-interactive dialog used by the CLI and by restoration-free batch runs.
package dialog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ordercloak/internal/dom"
	"ordercloak/internal/engine"
)

// Sink receives the confirmed tags. *engine.Engine satisfies it.
type Sink interface {
	ConfirmTags(ctx context.Context, conf engine.DialogConfirmation) bool
}

// AutoConfirm is a dialog that confirms synchronously inside Open, using
// preset tags and notes. When no presets are given it re-confirms whatever
// the order already carries. At most one dialog is open at a time; a second
// Open while one is in flight is refused.
type AutoConfirm struct {
	sink  Sink
	tags  []string
	notes string
	log   *zap.Logger

	mu   sync.Mutex
	open bool
}

var _ engine.Dialog = (*AutoConfirm)(nil)

// NewAutoConfirm builds the dialog. sink must not be nil.
func NewAutoConfirm(sink Sink, tags []string, notes string, logger *zap.Logger) *AutoConfirm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoConfirm{
		sink:  sink,
		tags:  tags,
		notes: notes,
		log:   logger.Named("dialog"),
	}
}

// Open confirms immediately. The anchor is unused here; interactive dialogs
// position themselves against it.
func (d *AutoConfirm) Open(payload engine.DialogPayload, anchor *dom.Element) bool {
	d.mu.Lock()
	if d.open {
		d.mu.Unlock()
		d.log.Warn("dialog already open, request refused",
			zap.String("order_id", payload.OrderNumber))
		return false
	}
	d.open = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.open = false
		d.mu.Unlock()
	}()

	tags := d.tags
	if len(tags) == 0 {
		tags = payload.Existing.Tags
	}
	notes := d.notes
	if notes == "" {
		notes = payload.Existing.Notes
	}

	d.log.Debug("auto-confirming tags",
		zap.String("order_id", payload.OrderNumber), zap.Strings("tags", tags))
	return d.sink.ConfirmTags(context.Background(), engine.DialogConfirmation{
		OrderNumber: payload.OrderNumber,
		Tags:        tags,
		Notes:       notes,
	})
}
