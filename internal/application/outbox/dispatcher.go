package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/campus-auth-api/internal/config"
	"github.com/campus-auth-api/internal/domain"
)

type outboxStore interface {
	ListDue(ctx context.Context, now int64, limit int32) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, messageID string) error
	Reschedule(ctx context.Context, messageID string, attempts int, nextAttemptAt int64, lastError string) error
	MarkDead(ctx context.Context, messageID string, lastError string) error
}

type mailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type archiveStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type alertPublisher interface {
	Alert(ctx context.Context, subject, message string) error
}

// Dispatcher drains the mail outbox in the background. Messages that fail to
// send are retried with exponential backoff; messages that exhaust their
// attempts are archived to S3, flagged to operators and parked as dead.
// Delivery is at-least-once: a crash between send and MarkSent means the
// message goes out again on the next poll.
type Dispatcher struct {
	outbox   outboxStore
	mailer   mailSender
	archiver archiveStore   // optional
	alerter  alertPublisher // optional
	cfg      config.OutboxConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type DispatcherDeps struct {
	OutboxRepo outboxStore
	Mailer     mailSender
	Archiver   archiveStore
	Alerter    alertPublisher
	Config     config.OutboxConfig
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		outbox:   deps.OutboxRepo,
		mailer:   deps.Mailer,
		archiver: deps.Archiver,
		alerter:  deps.Alerter,
		cfg:      deps.Config,
	}
}

// Start launches the polling loop. Call Stop to shut it down.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go d.run(ctx)
	slog.Info("outbox dispatcher started",
		"poll_interval", d.cfg.PollInterval,
		"batch_size", d.cfg.BatchSize,
		"max_attempts", d.cfg.MaxAttempts)
}

// Stop cancels the polling loop and blocks until in-flight work finishes.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	slog.Info("outbox dispatcher stopped")
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	// Drain anything already due before the first tick.
	d.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

// dispatch runs one poll cycle: fetch due messages and try each in turn.
func (d *Dispatcher) dispatch(ctx context.Context) {
	msgs, err := d.outbox.ListDue(ctx, time.Now().Unix(), int32(d.cfg.BatchSize))
	if err != nil {
		slog.Error("outbox poll failed", "err", err)
		return
	}
	for i := range msgs {
		if ctx.Err() != nil {
			return
		}
		d.deliver(ctx, &msgs[i])
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m *domain.OutboxMessage) {
	sendErr := d.mailer.Send(ctx, m.Recipient, m.Subject, m.Body)
	if sendErr == nil {
		if err := d.outbox.MarkSent(ctx, m.MessageID); err != nil {
			slog.Error("failed to mark message sent", "message_id", m.MessageID, "err", err)
		}
		return
	}

	attempts := m.Attempts + 1
	if attempts >= d.cfg.MaxAttempts {
		d.deadLetter(ctx, m, attempts, sendErr)
		return
	}

	next := time.Now().Add(backoffDelay(attempts, d.cfg.InitialBackoff, d.cfg.MaxBackoff)).Unix()
	if err := d.outbox.Reschedule(ctx, m.MessageID, attempts, next, sendErr.Error()); err != nil {
		slog.Error("failed to reschedule message", "message_id", m.MessageID, "err", err)
		return
	}
	slog.Warn("mail delivery failed, rescheduled",
		"message_id", m.MessageID, "attempts", attempts, "err", sendErr)
}

// deadLetter archives the message to S3 and alerts operators before parking
// it. Archive and alert failures are logged but don't block MarkDead; the
// table copy still carries the full message either way.
func (d *Dispatcher) deadLetter(ctx context.Context, m *domain.OutboxMessage, attempts int, sendErr error) {
	m.Attempts = attempts
	m.Status = domain.OutboxStatusDead
	m.LastError = sendErr.Error()

	if d.archiver != nil {
		data, err := json.Marshal(m)
		if err != nil {
			slog.Error("failed to marshal dead letter", "message_id", m.MessageID, "err", err)
		} else {
			key := fmt.Sprintf("dead-letter/%s.json", m.MessageID)
			if _, err := d.archiver.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
				slog.Error("failed to archive dead letter", "message_id", m.MessageID, "err", err)
			}
		}
	}

	if d.alerter != nil {
		alert := fmt.Sprintf("mail message %s to %s failed permanently after %d attempts: %v",
			m.MessageID, m.Recipient, attempts, sendErr)
		if err := d.alerter.Alert(ctx, "Mail delivery dead letter", alert); err != nil {
			slog.Error("failed to publish dead letter alert", "message_id", m.MessageID, "err", err)
		}
	}

	if err := d.outbox.MarkDead(ctx, m.MessageID, sendErr.Error()); err != nil {
		slog.Error("failed to mark message dead", "message_id", m.MessageID, "err", err)
		return
	}
	slog.Error("mail message dead-lettered",
		"message_id", m.MessageID, "recipient", m.Recipient, "attempts", attempts)
}

// backoffDelay doubles the initial delay per prior attempt, capped at max.
func backoffDelay(attempt int, initial, max time.Duration) time.Duration {
	d := initial
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}
	return d
}
