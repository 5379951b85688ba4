// Package alertworker re-notifies users about stale unread direct
// messages. It is the only writer of last_notified_at and relies on
// conditional row updates to stay correct next to live reads.
package alertworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tickTimeout bounds one whole batch, scan included.
const tickTimeout = 2 * time.Minute

var ErrInvalidConfig = errors.New("alertworker: missing dependency")

// Notifier is the delivery side of the reminder. Failures are isolated
// per message by the worker.
type Notifier interface {
	NotifyUser(ctx context.Context, userID snowflake.ID, subject, body string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Policy   *config.AlertPolicyHolder
	Repo     messagedomain.Repository
	EntSvc   entitlementdomain.Service
	Notifier Notifier
}

type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	policy   *config.AlertPolicyHolder
	repo     messagedomain.Repository
	entSvc   entitlementdomain.Service
	notifier Notifier
}

func New(p Params) (*Worker, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Policy == nil || p.Repo == nil || p.EntSvc == nil || p.Notifier == nil {
		return nil, ErrInvalidConfig
	}
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("alertworker").With(zap.String("component", "alertworker")),
		clock:    p.Clock,
		policy:   p.Policy,
		repo:     p.Repo,
		entSvc:   p.EntSvc,
		notifier: p.Notifier,
	}, nil
}

// RunForever ticks on the configured interval until ctx is cancelled.
// A failing tick is logged and the loop waits for the next interval.
func (w *Worker) RunForever(ctx context.Context) {
	w.log.Info("started", zap.Duration("interval", w.policy.Get().RunInterval))

	for {
		timer := time.NewTimer(w.policy.Get().RunInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.log.Info("stopped")
			return
		case <-timer.C:
		}

		if err := w.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				w.log.Info("stopped")
				return
			}
			metrics.Worker().IncTickError()
			w.log.Error("tick failed", zap.Error(err))
		}
	}
}

// RunOnce executes a single reminder tick: scan, notify, mark.
func (w *Worker) RunOnce(parent context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, tickTimeout)
	defer cancel()

	workerMetrics := metrics.Worker()
	workerMetrics.IncTick()
	defer func() {
		workerMetrics.ObserveTick(time.Since(start))
	}()

	policy := w.policy.Get()
	now := w.clock.Now()
	cutoff := now.Add(-policy.StaleThreshold)

	stale, err := w.repo.ListStaleUnreadDirect(ctx, w.db, cutoff, policy.BatchSize)
	if err != nil {
		return fmt.Errorf("scan stale messages: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	log := w.log.With(zap.Int("batch", len(stale)))
	log.Info("processing stale unread messages", zap.Time("cutoff", cutoff))

	for _, msg := range stale {
		// Cancellation is honored between messages, never mid-message.
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processMessage(ctx, msg, now)
	}

	return nil
}

// processMessage emits at most one reminder for msg and records the
// idempotency marker. Rows whose recipient lacks the email_alerts
// feature are marked too, so they are not rescanned every tick.
func (w *Worker) processMessage(ctx context.Context, msg messagedomain.Message, now time.Time) {
	workerMetrics := metrics.Worker()
	recipientID := *msg.ReceiverID
	log := w.log.With(
		zap.Int64("message_id", int64(msg.ID)),
		zap.Int64("receiver_id", int64(recipientID)),
	)

	entitled, err := w.entSvc.HasActiveFeature(ctx, recipientID, entitlementdomain.FeatureEmailAlerts)
	if err != nil {
		// Leave the row unmarked so the next tick retries it.
		workerMetrics.IncSkipped("entitlement_check_failed")
		log.Error("entitlement check failed", zap.Error(err))
		return
	}

	if entitled {
		subject := "Unread message reminder"
		body := fmt.Sprintf("You have an unread message from user %d.", msg.SenderID)
		if err := w.notifier.NotifyUser(ctx, recipientID, subject, body); err != nil {
			workerMetrics.IncSkipped("delivery_failed")
			log.Error("reminder delivery failed", zap.Error(err))
			return
		}
	} else {
		workerMetrics.IncSkipped("not_entitled")
	}

	affected, err := w.repo.MarkNotified(ctx, w.db, msg.ID, now)
	if err != nil {
		log.Error("mark notified failed", zap.Error(err))
		return
	}
	if affected == 0 {
		// The recipient read the message mid-batch; their clear wins.
		workerMetrics.IncSkipped("read_during_tick")
		return
	}
	if entitled {
		workerMetrics.IncNotified()
	}
}
