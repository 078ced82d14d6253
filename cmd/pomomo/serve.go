package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus/discordgo"
	"github.com/benjamonnguyen/pomomo-focus/dispatch"
	"github.com/benjamonnguyen/pomomo-focus/httpapi"
	"github.com/benjamonnguyen/pomomo-focus/notify"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder daemon",
		Long: `Run the background dispatcher that fires due reminders, plus the HTTP API
foreground commands use to wake it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.serve()
		},
	}
}

func (a *app) notifier() (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(a.l)}
	if d := a.cfg.Notifications.Discord; d.Token != "" {
		dn, err := discordgo.NewNotifier(d.Token, d.ChannelID, a.cfg.Notifications.BaseURL, a.l)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, dn)
		a.l.Info("discord notifications enabled", "channelID", d.ChannelID)
	}
	return notifiers, nil
}

func (a *app) dispatcherOptions(permission notify.Permission) []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithInterval(a.cfg.DispatchInterval),
		dispatch.WithLocation(a.loc),
		dispatch.WithPermission(permission),
		dispatch.WithIcon(a.cfg.Notifications.Icon),
		dispatch.WithLogger(a.l),
	}
}

func (a *app) serve() error {
	topCtx, topCtxC := context.WithCancel(context.Background())
	defer topCtxC()

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close() //nolint

	permission, err := notify.ParsePermission(a.cfg.Notifications.Permission)
	if err != nil {
		return err
	}
	if !permission.Granted() {
		a.l.Warn("notifications will not be displayed", "permission", permission)
	}
	notifier, err := a.notifier()
	if err != nil {
		return err
	}

	dispatcher := dispatch.NewDispatcher(topCtx, st.notifications, st.tx, notifier, a.dispatcherOptions(permission)...)
	srv := httpapi.NewServer(dispatcher, st.notifications, st.stats, a.loc, a.l)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(a.cfg.ListenAddr)
	}()
	a.l.Info("pomomo daemon running. Press CTRL-C to exit.", "interval", a.cfg.DispatchInterval)

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case err = <-srvErr:
		if err != nil {
			a.l.Error("http api stopped", "err", err)
		}
	}
	a.l.Info("terminating pomomo daemon")
	topCtxC()

	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownTimeoutC()
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		a.l.Error("failed to shut down http api", "err", err)
	}
	dispatcher.Shutdown()
	return err
}
