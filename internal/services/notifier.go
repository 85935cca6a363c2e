package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// Deliverer hands a persisted notification to the live transport. Implementations
// must not block and must not fail the caller; delivery is best effort.
type Deliverer interface {
	Deliver(n models.Notification)
}

// Notifier writes notifications to the ledger and then offers them for live delivery.
type Notifier struct {
	ledger    repositories.NotificationRepository
	deliverer Deliverer
	metrics   *observability.Metrics
}

func NewNotifier(ledger repositories.NotificationRepository, deliverer Deliverer, metrics *observability.Metrics) *Notifier {
	return &Notifier{ledger: ledger, deliverer: deliverer, metrics: metrics}
}

// Emit persists n and, once persisted, passes it to the deliverer. The ledger
// write is the success criterion. Callers check sender != receiver before
// calling; Emit refuses such a notification regardless.
func (s *Notifier) Emit(ctx context.Context, n *models.Notification) error {
	if n.SenderID == n.ReceiverID {
		return invalidOperation("cannot notify a user of their own action")
	}
	if err := s.ledger.CreateNotification(ctx, n); err != nil {
		return storage("notification", err)
	}
	s.metrics.RecordEmitted(string(n.Type))

	if s.deliverer != nil {
		s.deliverer.Deliver(*n)
	}
	return nil
}

// emitAfterCommit emits n as the side effect of a mutation that already
// committed. Failures are logged and counted, never returned.
func emitAfterCommit(ctx context.Context, notifier *Notifier, metrics *observability.Metrics, n *models.Notification) {
	if notifier == nil || n.SenderID == n.ReceiverID {
		return
	}
	if err := notifier.Emit(ctx, n); err != nil {
		metrics.RecordSideEffectFailure("notification")
		logger.Warn("Failed to emit notification",
			zap.String("type", string(n.Type)),
			zap.String("sender_id", n.SenderID),
			zap.String("receiver_id", n.ReceiverID),
			zap.Error(err),
		)
	}
}
