package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/workflow"
	"go.uber.org/zap"
)

type stubDirectory struct {
	users []*models.User
	err   error
}

func (d *stubDirectory) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*models.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) ListByName(ctx context.Context, name string) ([]*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*models.User
	for _, u := range d.users {
		if u.Name == name {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) GetByID(ctx context.Context, id string) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type stubSink struct {
	created []*models.Notification
	err     error
}

func (s *stubSink) Create(ctx context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

type stubTransport struct {
	sent []string
	err  error
}

func (t *stubTransport) Send(ctx context.Context, recipient *models.User, message, requisitionID string) error {
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, recipient.ID)
	return nil
}

func testUsers() []*models.User {
	return []*models.User{
		{ID: "u-1", Name: "Chairman", Role: models.RoleApprover},
		{ID: "u-2", Name: "Clerk A", Role: models.RoleAccounts},
		{ID: "u-3", Name: "Clerk B", Role: models.RoleAccounts},
	}
}

func TestDispatchResolvesSelectors(t *testing.T) {
	dir := &stubDirectory{users: testUsers()}
	sink := &stubSink{}
	d := NewDispatcher(dir, sink, nil, zap.NewNop())

	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Name: "Chairman"}, Message: "m1", RequisitionID: "r-1"},
		{Recipient: workflow.Recipient{Role: models.RoleAccounts}, Message: "m2", RequisitionID: "r-1"},
		{Recipient: workflow.Recipient{UserID: "u-2"}, Message: "m3", RequisitionID: "r-1"},
	})

	require.Len(t, sink.created, 4)
	recipients := []string{}
	for _, n := range sink.created {
		recipients = append(recipients, n.RecipientID)
		assert.Equal(t, "r-1", n.RequisitionID)
		assert.False(t, n.CreatedAt.IsZero())
	}
	assert.Equal(t, []string{"u-1", "u-2", "u-3", "u-2"}, recipients)
}

func TestDispatchSkipsUnmatchedSelectors(t *testing.T) {
	dir := &stubDirectory{users: testUsers()}
	sink := &stubSink{}
	d := NewDispatcher(dir, sink, nil, zap.NewNop())

	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Name: "Nobody"}, Message: "m", RequisitionID: "r-1"},
		{Recipient: workflow.Recipient{UserID: "missing"}, Message: "m", RequisitionID: "r-1"},
		{Recipient: workflow.Recipient{}, Message: "m", RequisitionID: "r-1"},
	})

	assert.Empty(t, sink.created)
}

func TestDispatchSwallowsFailures(t *testing.T) {
	// Neither directory errors, sink errors, nor transport errors escape.
	d := NewDispatcher(&stubDirectory{err: errors.New("db down")}, &stubSink{}, nil, zap.NewNop())
	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Name: "Chairman"}},
	})

	dir := &stubDirectory{users: testUsers()}
	sink := &stubSink{err: errors.New("insert failed")}
	d = NewDispatcher(dir, sink, nil, zap.NewNop())
	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Name: "Chairman"}},
	})

	transport := &stubTransport{err: errors.New("push failed")}
	sink = &stubSink{}
	d = NewDispatcher(dir, sink, transport, zap.NewNop())
	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Name: "Chairman"}},
	})
	// The row is still persisted when the push fails.
	assert.Len(t, sink.created, 1)
}

func TestDispatchPushesOverTransport(t *testing.T) {
	dir := &stubDirectory{users: testUsers()}
	sink := &stubSink{}
	transport := &stubTransport{}
	d := NewDispatcher(dir, sink, transport, zap.NewNop())

	d.Dispatch(context.Background(), []workflow.NotificationRequest{
		{Recipient: workflow.Recipient{Role: models.RoleAccounts}, Message: "ready for payment", RequisitionID: "r-9"},
	})

	assert.Equal(t, []string{"u-2", "u-3"}, transport.sent)
	assert.Len(t, sink.created, 2)
}
