package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// Pusher writes an event to a live connection without blocking.
type Pusher interface {
	Push(connID, event string, payload any) bool
}

// Dispatcher delivers persisted notifications to live connections off the
// request path. Deliver never blocks; when the queue is full the push is dropped.
type Dispatcher struct {
	registry Registry
	pusher   Pusher
	metrics  *observability.Metrics
	queue    chan models.Notification
}

func NewDispatcher(registry Registry, pusher Pusher, metrics *observability.Metrics, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Dispatcher{
		registry: registry,
		pusher:   pusher,
		metrics:  metrics,
		queue:    make(chan models.Notification, queueSize),
	}
}

// Start launches the workers and returns a stop function that drains what is
// already queued, until ctx expires.
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				case <-stopCh:
					for {
						select {
						case n := <-d.queue:
							d.deliver(n)
						default:
							return
						}
					}
				}
			}
		}()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Deliver implements services.Deliverer.
func (d *Dispatcher) Deliver(n models.Notification) {
	select {
	case d.queue <- n:
	default:
		d.metrics.RecordDelivery(observability.DeliveryDropped)
		logger.Warn("Dispatch queue full, dropping live push",
			zap.Uint("notification_id", n.ID),
			zap.String("receiver_id", n.ReceiverID),
		)
	}
}

// QueueLen returns the current queue length.
func (d *Dispatcher) QueueLen() int { return len(d.queue) }

func (d *Dispatcher) deliver(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connID, ok, err := d.registry.Resolve(ctx, n.ReceiverID)
	switch {
	case err != nil:
		d.metrics.RecordDelivery(observability.DeliveryError)
		logger.Warn("Failed to resolve live connection", zap.String("receiver_id", n.ReceiverID), zap.Error(err))
	case !ok:
		d.metrics.RecordDelivery(observability.DeliveryOffline)
	case !d.pusher.Push(connID, models.EventNotification, n):
		d.metrics.RecordDelivery(observability.DeliveryStale)
		logger.Debug("Live connection gone", zap.String("receiver_id", n.ReceiverID), zap.String("conn_id", connID))
	default:
		d.metrics.RecordDelivery(observability.DeliveryDelivered)
	}
}
