package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ordercloak/internal/dom"
)

const testDebounce = 20 * time.Millisecond

func TestDebouncerCoalescesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	fired := 0
	d := NewDebouncer(testDebounce)
	for i := 0; i < 50; i++ {
		d.Debounce(func() {
			mu.Lock()
			fired++
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired > 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * testDebounce)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired, "a 50-call burst must collapse into one firing")
}

func TestDebouncerCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	fired := 0
	d := NewDebouncer(testDebounce)
	d.Debounce(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	d.Cancel()

	time.Sleep(3 * testDebounce)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired)
}

// collector is a thread-safe callback target for watcher tests.
type collector struct {
	mu       sync.Mutex
	detected []*dom.Element
	removed  []*dom.Element
}

func (c *collector) onDetected(el *dom.Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detected = append(c.detected, el)
}

func (c *collector) onRemoved(el *dom.Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, el)
}

func (c *collector) detectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.detected)
}

func (c *collector) removedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.removed)
}

// appendCard attaches a fresh order card with the given id to the body.
func appendCard(doc *dom.Document, id string) *dom.Element {
	card := doc.CreateElement("div")
	card.AddClass("order-card")
	card.SetAttr("data-order-id", id)
	doc.Body().AppendChild(card)
	return card
}

func TestWatcherDispatchesAddedRootsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	c := &collector{}
	w := NewWatcher(doc, testDebounce, nil, c.onDetected, c.onRemoved)
	w.Start()
	defer w.Stop()

	for i := 0; i < 50; i++ {
		appendCard(doc, fmt.Sprintf("%03d-4567890-12345%02d", i+100, i))
	}
	assert.Equal(t, 0, c.detectedCount(), "dispatch must wait for the quiet window")

	require.Eventually(t, func() bool {
		return c.detectedCount() == 50
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 50, c.detectedCount(), "burst must dispatch each root exactly once")
}

func TestWatcherScansDescendantsOfChangedFragment(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	c := &collector{}
	w := NewWatcher(doc, testDebounce, nil, c.onDetected, c.onRemoved)
	w.Start()
	defer w.Stop()

	// The host page swaps in a whole section; order roots are nested inside
	// the one top-level added node.
	section, err := dom.ParseString(
		`<html><body><div class="orders-section">
			<div class="order-card" data-order-id="123-4567890-1234567"></div>
			<div class="js-order-card"><span class="order-id-value">D01-1234567-7654321</span></div>
		</div></body></html>`, nil)
	require.NoError(t, err)
	doc.Body().AppendChild(section.Find(".orders-section"))

	require.Eventually(t, func() bool {
		return c.detectedCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatcherDispatchesRemovedRoots(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	card := appendCard(doc, "123-4567890-1234567")

	c := &collector{}
	w := NewWatcher(doc, testDebounce, nil, c.onDetected, c.onRemoved)
	w.Start()
	defer w.Stop()

	card.Detach()
	require.Eventually(t, func() bool {
		return c.removedCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.removed[0].Same(card))
}

func TestWatcherStopDropsPendingBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	c := &collector{}
	w := NewWatcher(doc, testDebounce, nil, c.onDetected, c.onRemoved)
	w.Start()

	appendCard(doc, "123-4567890-1234567")
	w.Stop()

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, c.detectedCount(), "queued batch must be dropped on stop")

	// Mutations after Stop are not observed at all.
	appendCard(doc, "124-4567890-1234567")
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, c.detectedCount())
}

func TestWatcherStartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	c := &collector{}
	w := NewWatcher(doc, testDebounce, nil, c.onDetected, c.onRemoved)
	w.Start()
	w.Start()
	w.Stop()
	w.Stop()
}

func TestWatcherSurvivesPanickingCallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	c := &collector{}
	calls := 0
	var mu sync.Mutex
	w := NewWatcher(doc, testDebounce, nil, func(el *dom.Element) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			panic("callback exploded")
		}
		c.onDetected(el)
	}, nil)
	w.Start()
	defer w.Stop()

	appendCard(doc, "123-4567890-1234567")
	appendCard(doc, "124-4567890-1234567")

	require.Eventually(t, func() bool {
		return c.detectedCount() == 1
	}, time.Second, 5*time.Millisecond)

	// The watcher is still live for the next burst.
	appendCard(doc, "125-4567890-1234567")
	require.Eventually(t, func() bool {
		return c.detectedCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestEngineWatcherLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := mustDoc(t, `<html><body></body></html>`)
	var mu sync.Mutex
	detected, removed := 0, 0
	e := New(doc, Options{
		Store:    newFakeStore(),
		Debounce: testDebounce,
		Callbacks: Callbacks{
			OnOrderDetected: func(el *dom.Element) {
				mu.Lock()
				detected++
				mu.Unlock()
			},
			OnOrderRemoved: func(orderID string, el *dom.Element) {
				mu.Lock()
				removed++
				mu.Unlock()
			},
		},
	})
	e.StartWatcher()
	defer e.StopWatcher()

	card := appendCard(doc, "123-4567890-1234567")
	require.Eventually(t, func() bool {
		return e.ControlCount() == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, detected)
	mu.Unlock()
	assert.NotNil(t, card.Find("."+ClassControls), "detected order gets a control injected")

	card.Detach()
	require.Eventually(t, func() bool {
		return e.ControlCount() == 0
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, removed)
	mu.Unlock()
}
