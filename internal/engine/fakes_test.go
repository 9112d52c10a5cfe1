package engine

import (
	"context"
	"errors"
	"sync"

	"ordercloak/internal/dom"
	"ordercloak/internal/types"
)

// fakeStore is an in-memory Storage with switchable failure modes.
type fakeStore struct {
	mu       sync.Mutex
	tags     map[string]types.TagData
	hidden   map[string]types.HiddenOrder
	settings map[string]string

	failTags bool
	failPut  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tags:     make(map[string]types.TagData),
		hidden:   make(map[string]types.HiddenOrder),
		settings: make(map[string]string),
	}
}

func (s *fakeStore) GetOrderTags(ctx context.Context, orderID string) (*types.TagData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTags {
		return nil, errors.New("store offline")
	}
	if d, ok := s.tags[orderID]; ok {
		out := d
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) StoreOrderTags(ctx context.Context, orderID string, data types.TagData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTags {
		return errors.New("store offline")
	}
	s.tags[orderID] = data
	return nil
}

func (s *fakeStore) GetAllHiddenOrders(ctx context.Context) ([]types.HiddenOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.HiddenOrder, 0, len(s.hidden))
	for _, rec := range s.hidden {
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) PutHiddenOrder(ctx context.Context, rec types.HiddenOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("store offline")
	}
	s.hidden[rec.OrderID] = rec
	return nil
}

func (s *fakeStore) DeleteHiddenOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hidden, orderID)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *fakeStore) hiddenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hidden)
}

// stubDialog scripts the dialog collaborator. With a confirm func it drives
// the sink synchronously inside Open, like a user confirming immediately;
// without one it leaves the hide pending.
type stubDialog struct {
	sink    *Engine
	confirm func(p DialogPayload) *DialogConfirmation
	refuse  bool

	mu     sync.Mutex
	opened []DialogPayload
}

func (d *stubDialog) Open(p DialogPayload, anchor *dom.Element) bool {
	d.mu.Lock()
	d.opened = append(d.opened, p)
	d.mu.Unlock()
	if d.refuse {
		return false
	}
	if d.confirm != nil {
		if conf := d.confirm(p); conf != nil {
			return d.sink.ConfirmTags(context.Background(), *conf)
		}
	}
	return true
}

func (d *stubDialog) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

// confirmWith scripts a dialog that immediately confirms with fixed tags.
func confirmWith(e *Engine, tags []string, notes string) *stubDialog {
	return &stubDialog{
		sink: e,
		confirm: func(p DialogPayload) *DialogConfirmation {
			return &DialogConfirmation{OrderNumber: p.OrderNumber, Tags: tags, Notes: notes}
		},
	}
}
