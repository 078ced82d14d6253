package dispatch

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/notify"
	"github.com/benjamonnguyen/pomomo-focus/sqlite"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 30, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	shown []pomomo.Notification
	err   error
	ch    chan pomomo.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification pomomo.Notification) error {
	n.mu.Lock()
	n.shown = append(n.shown, notification)
	n.mu.Unlock()
	if n.ch != nil {
		n.ch <- notification
	}
	return n.err
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.shown {
		out = append(out, s.Title)
	}
	return out
}

func openStore(t *testing.T) (pomomo.NotificationRepo, transactor.Transactor) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	tx, dbGetter := txStdLib.NewTransactor(db.DB(), txStdLib.NestedTransactionsSavepoints)
	return sqlite.NewNotificationRepo(dbGetter, log.New(io.Discard)), tx
}

func newManual(t *testing.T, repo pomomo.NotificationRepo, tx transactor.Transactor, notifier notify.Notifier, opts ...Option) *Dispatcher {
	t.Helper()
	opts = append([]Option{
		WithManualPass(),
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithIcon("/logo192.png"),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	d := NewDispatcher(context.Background(), repo, tx, notifier, opts...)
	t.Cleanup(d.Shutdown)
	return d
}

func seed(t *testing.T, repo pomomo.NotificationRepo, notifications ...pomomo.ScheduledNotification) {
	t.Helper()
	for _, n := range notifications {
		_, err := repo.UpsertNotification(context.Background(), n)
		require.NoError(t, err)
	}
}

func TestPass_ConsumesAndAdvances(t *testing.T) {
	repo, tx := openStore(t)
	notifier := &recordingNotifier{}
	d := newManual(t, repo, tx, notifier)
	ctx := context.Background()

	seed(t, repo,
		pomomo.ScheduledNotification{
			TaskID:        "task-1",
			Type:          pomomo.DeadlineNotification,
			Title:         "deadline",
			ScheduledTime: testNow.Add(-time.Minute).UnixMilli(),
			URL:           "/tasks/task-1",
		},
		pomomo.ScheduledNotification{
			TaskID:        "task-1",
			Type:          pomomo.DailyNotification,
			Title:         "daily",
			ScheduledTime: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC).UnixMilli(),
			URL:           "/tasks/task-1",
			Recurrence:    pomomo.Daily(9, 0),
		},
		pomomo.ScheduledNotification{
			TaskID:        "task-2",
			Type:          pomomo.IntervalNotification,
			Title:         "not yet",
			ScheduledTime: testNow.Add(time.Hour).UnixMilli(),
			Recurrence:    pomomo.Every(3),
		},
	)

	fired, err := d.Pass(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
	assert.ElementsMatch(t, []string{"deadline", "daily"}, notifier.titles())
	assert.Equal(t, "/logo192.png", notifier.shown[0].Icon)

	_, err = repo.GetNotification(ctx, "task-1", pomomo.DeadlineNotification)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	daily, err := repo.GetNotification(ctx, "task-1", pomomo.DailyNotification)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC).UnixMilli(), daily.ScheduledTime)

	pending, err := repo.GetNotification(ctx, "task-2", pomomo.IntervalNotification)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour).UnixMilli(), pending.ScheduledTime)

	// same now: nothing fires twice
	fired, err = d.Pass(ctx)
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Len(t, notifier.titles(), 2)
}

func TestPass_IntervalAdvancesFromNow(t *testing.T) {
	repo, tx := openStore(t)
	d := newManual(t, repo, tx, &recordingNotifier{})
	ctx := context.Background()

	seed(t, repo, pomomo.ScheduledNotification{
		TaskID:        "task-1",
		Type:          pomomo.IntervalNotification,
		ScheduledTime: testNow.Add(-5 * time.Hour).UnixMilli(),
		Recurrence:    pomomo.Every(2),
	})

	_, err := d.Pass(ctx)
	require.NoError(t, err)

	n, err := repo.GetNotification(ctx, "task-1", pomomo.IntervalNotification)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(2*time.Hour).UnixMilli(), n.ScheduledTime)
}

func TestPass_PermissionNotGranted(t *testing.T) {
	repo, tx := openStore(t)
	notifier := &recordingNotifier{}
	d := newManual(t, repo, tx, notifier, WithPermission(notify.PermissionDenied))
	ctx := context.Background()

	seed(t, repo, pomomo.ScheduledNotification{
		TaskID:        "task-1",
		Type:          pomomo.DeadlineNotification,
		ScheduledTime: testNow.UnixMilli(),
	})

	fired, err := d.Pass(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 1)
	assert.Empty(t, notifier.titles())

	all, err := repo.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPass_DisplayErrorStillConsumes(t *testing.T) {
	repo, tx := openStore(t)
	notifier := &recordingNotifier{err: errors.New("channel gone")}
	d := newManual(t, repo, tx, notifier)
	ctx := context.Background()

	seed(t, repo, pomomo.ScheduledNotification{
		TaskID:        "task-1",
		Type:          pomomo.DeadlineNotification,
		ScheduledTime: testNow.UnixMilli(),
	})

	fired, err := d.Pass(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	all, err := repo.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// racingRepo rewrites an entry between the dispatcher's read and its write,
// the way a concurrent schedule call would.
type racingRepo struct {
	pomomo.NotificationRepo
	replace pomomo.ScheduledNotification
}

func (r *racingRepo) ListDueNotifications(ctx context.Context, now time.Time) ([]pomomo.ExistingScheduledNotification, error) {
	due, err := r.NotificationRepo.ListDueNotifications(ctx, now)
	if err != nil {
		return nil, err
	}
	if _, err := r.NotificationRepo.UpsertNotification(ctx, r.replace); err != nil {
		return nil, err
	}
	return due, nil
}

func TestPass_SkipsEntriesChangedSinceRead(t *testing.T) {
	store, tx := openStore(t)
	ctx := context.Background()

	seed(t, store,
		pomomo.ScheduledNotification{TaskID: "task-1", Type: pomomo.DeadlineNotification, Title: "old", ScheduledTime: testNow.UnixMilli()},
		pomomo.ScheduledNotification{TaskID: "task-2", Type: pomomo.DeadlineNotification, Title: "other", ScheduledTime: testNow.UnixMilli()},
	)
	replacement := pomomo.ScheduledNotification{
		TaskID:        "task-1",
		Type:          pomomo.DeadlineNotification,
		Title:         "new",
		ScheduledTime: testNow.Add(time.Hour).UnixMilli(),
	}

	notifier := &recordingNotifier{}
	d := newManual(t, &racingRepo{NotificationRepo: store, replace: replacement}, tx, notifier)

	fired, err := d.Pass(ctx)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, []string{"other"}, notifier.titles())

	kept, err := store.GetNotification(ctx, "task-1", pomomo.DeadlineNotification)
	require.NoError(t, err)
	assert.Equal(t, "new", kept.Title)
	assert.Equal(t, replacement.ScheduledTime, kept.ScheduledTime)
}

type failingWriteRepo struct {
	pomomo.NotificationRepo
}

func (r *failingWriteRepo) DeleteNotificationIfVersion(context.Context, pomomo.TaskID, pomomo.NotificationType, int64) (bool, error) {
	return false, errors.New("disk I/O error")
}

func TestPass_WriteFailureRollsBack(t *testing.T) {
	store, tx := openStore(t)
	ctx := context.Background()

	seed(t, store,
		pomomo.ScheduledNotification{TaskID: "task-1", Type: pomomo.DailyNotification, Title: "daily", ScheduledTime: testNow.Add(-time.Second).UnixMilli(), Recurrence: pomomo.Daily(9, 0)},
		pomomo.ScheduledNotification{TaskID: "task-2", Type: pomomo.DeadlineNotification, Title: "deadline", ScheduledTime: testNow.UnixMilli()},
	)
	before, err := store.ListNotifications(ctx)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	d := newManual(t, &failingWriteRepo{NotificationRepo: store}, tx, notifier)

	_, err = d.Pass(ctx)
	require.Error(t, err)
	assert.Empty(t, notifier.titles())

	after, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// next wake with a healthy store fires each entry once
	fired, err := newManual(t, store, tx, notifier).Pass(ctx)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
}

func TestDispatcher_SignalWakesLoop(t *testing.T) {
	repo, tx := openStore(t)
	notifier := &recordingNotifier{ch: make(chan pomomo.Notification, 1)}

	d := NewDispatcher(context.Background(), repo, tx, notifier,
		WithInterval(time.Hour),
		WithLogger(log.New(io.Discard)),
	)
	defer d.Shutdown()

	seed(t, repo, pomomo.ScheduledNotification{
		TaskID:        "task-1",
		Type:          pomomo.DeadlineNotification,
		Title:         "signalled",
		ScheduledTime: time.Now().Add(-time.Second).UnixMilli(),
	})
	d.Signal()
	d.Signal()

	select {
	case n := <-notifier.ch:
		assert.Equal(t, "signalled", n.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for signalled pass")
	}
}

func TestDispatcher_ShutdownStopsLoop(t *testing.T) {
	repo, tx := openStore(t)
	d := NewDispatcher(context.Background(), repo, tx, &recordingNotifier{},
		WithInterval(time.Millisecond),
		WithLogger(log.New(io.Discard)),
	)

	done := make(chan struct{})
	go func() {
		d.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
}
