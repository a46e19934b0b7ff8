package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// In-memory stores for engine tests. Failure modes are opt-in per field.

type fakeRequisitionStore struct {
	reqs      map[string]*models.Requisition
	createErr error
	deleted   []string
	conflict  bool // force ApplyTransition to report a lost race
}

func newFakeRequisitionStore() *fakeRequisitionStore {
	return &fakeRequisitionStore{reqs: make(map[string]*models.Requisition)}
}

func (s *fakeRequisitionStore) Get(ctx context.Context, id string) (*models.Requisition, error) {
	req, ok := s.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (s *fakeRequisitionStore) Create(ctx context.Context, req *models.Requisition) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *req
	s.reqs[req.ID] = &cp
	return nil
}

func (s *fakeRequisitionStore) Delete(ctx context.Context, id string) error {
	delete(s.reqs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeRequisitionStore) ApplyTransition(ctx context.Context, id string, expected models.RequisitionStatus, upd RequisitionUpdate) (bool, error) {
	if s.conflict {
		return false, nil
	}
	req, ok := s.reqs[id]
	if !ok || req.Status != expected {
		return false, nil
	}
	req.Status = upd.Status
	if upd.TotalCost != nil {
		req.TotalCost = *upd.TotalCost
	}
	if upd.QueriedTo != nil || upd.PrevStatus != nil {
		req.QueriedTo = upd.QueriedTo
		req.PreviousStatusOnQuery = upd.PrevStatus
	} else if upd.ClearQuery {
		req.QueriedTo = nil
		req.PreviousStatusOnQuery = nil
	}
	return true, nil
}

type fakeItemStore struct {
	items           map[string][]*models.Item
	prices          map[string]float64
	failForSupplier string // Insert fails when any item carries this supplier
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string][]*models.Item), prices: make(map[string]float64)}
}

func (s *fakeItemStore) Insert(ctx context.Context, items []*models.Item) error {
	for _, it := range items {
		if s.failForSupplier != "" && strings.EqualFold(it.Supplier, s.failForSupplier) {
			return errors.New("storage unavailable")
		}
	}
	for _, it := range items {
		s.items[it.RequisitionID] = append(s.items[it.RequisitionID], it)
	}
	return nil
}

func (s *fakeItemStore) Replace(ctx context.Context, requisitionID string, items []*models.Item) error {
	s.items[requisitionID] = nil
	return s.Insert(ctx, items)
}

func (s *fakeItemStore) SetUnitPrice(ctx context.Context, itemID string, price float64) error {
	s.prices[itemID] = price
	return nil
}

func (s *fakeItemStore) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.Item, error) {
	return s.items[requisitionID], nil
}

type fakeHistologyStore struct {
	items     map[string][]*models.HistologyItem
	insertErr error
}

func newFakeHistologyStore() *fakeHistologyStore {
	return &fakeHistologyStore{items: make(map[string][]*models.HistologyItem)}
}

func (s *fakeHistologyStore) Insert(ctx context.Context, items []*models.HistologyItem) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, it := range items {
		s.items[it.RequisitionID] = append(s.items[it.RequisitionID], it)
	}
	return nil
}

func (s *fakeHistologyStore) Replace(ctx context.Context, requisitionID string, items []*models.HistologyItem) error {
	s.items[requisitionID] = nil
	return s.Insert(ctx, items)
}

type fakeLogStore struct {
	entries   []*models.ApprovalLog
	appendErr error
}

func (s *fakeLogStore) Append(ctx context.Context, entry *models.ApprovalLog) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeLogStore) lastAction() models.LogAction {
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[len(s.entries)-1].Action
}

type fakeMessageStore struct {
	msgs []*models.Message
}

func (s *fakeMessageStore) Insert(ctx context.Context, msg *models.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

type fakeNotifier struct {
	dispatched []NotificationRequest
}

func (n *fakeNotifier) Dispatch(ctx context.Context, requests []NotificationRequest) {
	n.dispatched = append(n.dispatched, requests...)
}

// testEnv bundles an engine with its fakes.
type testEnv struct {
	engine       *Engine
	requisitions *fakeRequisitionStore
	items        *fakeItemStore
	histology    *fakeHistologyStore
	log          *fakeLogStore
	messages     *fakeMessageStore
	notifier     *fakeNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		requisitions: newFakeRequisitionStore(),
		items:        newFakeItemStore(),
		histology:    newFakeHistologyStore(),
		log:          &fakeLogStore{},
		messages:     &fakeMessageStore{},
		notifier:     &fakeNotifier{},
	}
	env.engine = NewEngine(
		env.requisitions,
		env.items,
		env.histology,
		env.log,
		env.messages,
		env.notifier,
		testApprovers,
		testLogger(),
	)
	return env
}

func (env *testEnv) seed(req *models.Requisition) {
	cp := *req
	env.requisitions.reqs[req.ID] = &cp
}
