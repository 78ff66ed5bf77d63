package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen -source=notify.go -destination=mock_notify.go -package=notify

const (
	TopUpCreated        = "topup.created"
	TopUpProofUploaded  = "topup.proof_uploaded"
	TopUpConfirmed      = "topup.confirmed"
	TopUpRejected       = "topup.rejected"
	WithdrawalRequested = "withdrawal.requested"
	WithdrawalStarted   = "withdrawal.processing"
	WithdrawalCompleted = "withdrawal.completed"
	WithdrawalFailed    = "withdrawal.failed"
)

type Event struct {
	Kind          string    `json:"kind"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Reference     string    `json:"reference,omitempty"`
	Amount        int64     `json:"amount"`
	At            time.Time `json:"at"`
}

type Notifier interface {
	Send(ctx context.Context, event Event) error
}

const (
	sendTimeout = 10 * time.Second
	// queued deliveries per worker before events are dropped
	queuePerWorker = 16
)

// Dispatcher fans events out to notifiers on a worker pool so callers
// never wait on delivery. Events that do not fit in the queue are dropped.
type Dispatcher struct {
	pool      WorkerPoolI
	notifiers []Notifier
}

func NewDispatcher(workers int, notifiers []Notifier) *Dispatcher {
	return &Dispatcher{
		pool:      NewWorkerPool(workers, max(workers, 1)*queuePerWorker),
		notifiers: notifiers,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	for _, n := range d.notifiers {
		n := n
		// a client hanging up must not drop events for work already committed
		err := d.pool.AddTask(context.WithoutCancel(ctx), func() error {
			sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			return n.Send(sendCtx, event)
		})
		if err != nil {
			zap.L().Warn("notification dropped", zap.String("kind", event.Kind), zap.Error(err))
		}
	}
}

func (d *Dispatcher) Close() {
	d.pool.Close()
}
