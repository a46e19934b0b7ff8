package notify

import (
	"context"
	"time"

	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/workflow"
	"go.uber.org/zap"
)

// Directory resolves recipient selectors to concrete users.
type Directory interface {
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	ListByName(ctx context.Context, name string) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Sink persists resolved notifications.
type Sink interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Transport pushes a notification to an external channel. Optional; the
// dispatcher works without one.
type Transport interface {
	Send(ctx context.Context, recipient *models.User, message, requisitionID string) error
}

// Dispatcher resolves fan-out requests into per-user notification rows and
// pushes them over the configured transport. Dispatch never fails the
// workflow operation that triggered it: every error is logged and swallowed.
type Dispatcher struct {
	directory Directory
	sink      Sink
	transport Transport
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. transport may be nil.
func NewDispatcher(directory Directory, sink Sink, transport Transport, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		sink:      sink,
		transport: transport,
		logger:    logger,
	}
}

// Dispatch resolves and delivers every request. A selector matching zero
// users is not an error; the request is simply skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, requests []workflow.NotificationRequest) {
	for _, req := range requests {
		recipients, err := d.resolve(ctx, req.Recipient)
		if err != nil {
			d.logger.Error("Failed to resolve notification recipients",
				zap.String("requisition_id", req.RequisitionID),
				zap.Error(err))
			continue
		}

		for _, user := range recipients {
			d.deliver(ctx, user, req)
		}
	}
}

func (d *Dispatcher) resolve(ctx context.Context, r workflow.Recipient) ([]*models.User, error) {
	switch {
	case r.UserID != "":
		user, err := d.directory.GetByID(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, nil
		}
		return []*models.User{user}, nil
	case r.Name != "":
		return d.directory.ListByName(ctx, r.Name)
	case r.Role != "":
		return d.directory.ListByRole(ctx, r.Role)
	}
	return nil, nil
}

func (d *Dispatcher) deliver(ctx context.Context, user *models.User, req workflow.NotificationRequest) {
	n := &models.Notification{
		RecipientID:   user.ID,
		Message:       req.Message,
		RequisitionID: req.RequisitionID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := d.sink.Create(ctx, n); err != nil {
		d.logger.Error("Failed to persist notification",
			zap.String("recipient_id", user.ID),
			zap.String("requisition_id", req.RequisitionID),
			zap.Error(err))
		return
	}

	if d.transport == nil {
		return
	}
	if err := d.transport.Send(ctx, user, req.Message, req.RequisitionID); err != nil {
		d.logger.Warn("Failed to push notification",
			zap.String("recipient_id", user.ID),
			zap.String("requisition_id", req.RequisitionID),
			zap.Error(err))
	}
}
