// Package dispatch fires due reminders from the notification schedule.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/notify"
)

const DefaultInterval = time.Minute

type Option func(*Dispatcher)

// WithInterval sets the wake cadence. It is a lower bound: a pass that runs
// long delays the next one.
func WithInterval(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		d.loc = loc
	}
}

func WithPermission(p notify.Permission) Option {
	return func(d *Dispatcher) {
		d.permission = p
	}
}

func WithIcon(icon string) Option {
	return func(d *Dispatcher) {
		d.icon = icon
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		d.l = l
	}
}

// WithManualPass disables the wake loop. The caller runs passes through Pass.
func WithManualPass() Option {
	return func(d *Dispatcher) {
		d.manual = true
	}
}

type Dispatcher struct {
	repo     pomomo.NotificationRepo
	tx       transactor.Transactor
	notifier notify.Notifier
	wake     chan struct{}

	interval   time.Duration
	now        func() time.Time
	loc        *time.Location
	permission notify.Permission
	icon       string
	manual     bool
	l          *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(ctx context.Context, repo pomomo.NotificationRepo, tx transactor.Transactor, notifier notify.Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		repo:       repo,
		tx:         tx,
		notifier:   notifier,
		wake:       make(chan struct{}, 1),
		interval:   DefaultInterval,
		now:        time.Now,
		loc:        time.Local,
		permission: notify.PermissionGranted,
		l:          log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ctx, d.cancel = context.WithCancel(ctx)

	if !d.manual {
		d.startLoop()
	}
	return d
}

// Signal requests a pass outside the regular cadence. Signals arriving while
// one is pending are coalesced.
func (d *Dispatcher) Signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) startLoop() {
	d.wg.Go(func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		d.runPass()
		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
			case <-d.wake:
			}
			d.runPass()
		}
	})
}

func (d *Dispatcher) runPass() {
	fired, err := d.Pass(d.ctx)
	if err != nil {
		d.l.Error("dispatch pass failed", "err", err)
		return
	}
	if len(fired) > 0 {
		d.l.Info("dispatched reminders", "count", len(fired))
	}
}

// Pass consumes due one-shot entries and advances due recurring ones, then
// displays them. Every store write is checked against the version read in
// the same transaction, so an entry rewritten concurrently is left for the
// next pass. Nothing is displayed unless the transaction commits.
//
// Pass returns the entries that fired. They are displayed only when
// permission is granted.
func (d *Dispatcher) Pass(ctx context.Context) ([]pomomo.ScheduledNotification, error) {
	now := d.now().In(d.loc)

	var fired []pomomo.ScheduledNotification
	err := d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		fired = nil
		due, err := d.repo.ListDueNotifications(ctx, now)
		if err != nil {
			return fmt.Errorf("read schedule: %w", err)
		}

		for _, n := range due {
			var ok bool
			if n.Recurrence == nil {
				ok, err = d.repo.DeleteNotificationIfVersion(ctx, n.TaskID, n.Type, n.Version)
			} else {
				next := pomomo.NextOccurrence(*n.Recurrence, now)
				ok, err = d.repo.RescheduleNotificationIfVersion(ctx, n.TaskID, n.Type, n.Version, next)
			}
			if err != nil {
				return fmt.Errorf("update %s reminder for task %s: %w", n.Type, n.TaskID, err)
			}
			if !ok {
				d.l.Debug("reminder changed since read, skipping", "taskID", n.TaskID, "type", n.Type)
				continue
			}
			fired = append(fired, n.ScheduledNotification)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !d.permission.Granted() {
		if len(fired) > 0 {
			d.l.Debug("notification permission not granted", "permission", d.permission, "dropped", len(fired))
		}
		return fired, nil
	}
	for _, n := range fired {
		err := d.notifier.Notify(ctx, pomomo.Notification{
			Title: n.Title,
			Body:  n.Body,
			Icon:  d.icon,
			URL:   n.URL,
		})
		if err != nil {
			d.l.Error("failed to display reminder", "taskID", n.TaskID, "type", n.Type, "err", err)
		}
	}
	return fired, nil
}
