package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/httpapi"
	"github.com/benjamonnguyen/pomomo-focus/reminder"
	"github.com/benjamonnguyen/pomomo-focus/sqlite"
	"github.com/benjamonnguyen/pomomo-focus/stats"
)

const Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

type app struct {
	configPath string
	cfg        pomomo.Config
	loc        *time.Location
	l          *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pomomo",
		Short:         "Pomodoro timer with task reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+pomomo.DefaultConfigPath()+")")

	root.AddCommand(
		serveCmd(a),
		timerCmd(a),
		taskCmd(a),
		remindCmd(a),
		settingsCmd(a),
		statsCmd(a),
		configCmd(a),
	)
	return root
}

// setup loads config and the logger. Commands call it first.
func (a *app) setup() error {
	cfg, err := pomomo.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", pomomo.LogLevelKey, err)
	}

	a.cfg = cfg
	a.loc = loc
	a.l = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
	})
	log.SetDefault(a.l)
	return nil
}

type store struct {
	db            *sqlite.DB
	tx            transactor.Transactor
	tasks         pomomo.TaskRepo
	prefs         pomomo.PreferencesRepo
	sessions      pomomo.SessionRepo
	stats         pomomo.StatsRepo
	notifications pomomo.NotificationRepo
}

func (a *app) openStore() (*store, error) {
	a.l.Debug("opening db", "url", a.cfg.DatabaseURL)
	db, err := sqlite.Open(a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed database open: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed migration: %w", err)
	}

	tx, dbGetter := txStdLib.NewTransactor(
		db.DB(),
		txStdLib.NestedTransactionsSavepoints,
	)
	return &store{
		db:            db,
		tx:            tx,
		tasks:         sqlite.NewTaskRepo(dbGetter, a.l),
		prefs:         sqlite.NewPreferencesRepo(dbGetter, a.l),
		sessions:      sqlite.NewSessionRepo(dbGetter, a.l),
		stats:         sqlite.NewStatsRepo(dbGetter, a.loc, a.l),
		notifications: sqlite.NewNotificationRepo(dbGetter, a.l),
	}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// scheduler returns a reminder scheduler that signals the daemon, if one is
// running, after each change.
func (a *app) scheduler(st *store) *reminder.Scheduler {
	return reminder.NewScheduler(st.notifications, st.tx,
		reminder.WithSignaler(httpapi.NewClient(a.cfg.DaemonURL)),
		reminder.WithLocation(a.loc),
		reminder.WithLogger(a.l),
	)
}

func (a *app) recorder(st *store) *stats.Recorder {
	return stats.NewRecorder(st.sessions, st.stats, st.tx, a.l)
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}
