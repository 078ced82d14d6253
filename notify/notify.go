// Package notify displays reminders to the user.
package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/benjamonnguyen/pomomo-focus"
)

type Notifier interface {
	Notify(context.Context, pomomo.Notification) error
}

type NotifierFunc func(context.Context, pomomo.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n pomomo.Notification) error {
	return f(ctx, n)
}

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return p, nil
	case "":
		return PermissionDefault, nil
	default:
		return "", fmt.Errorf("unknown notification permission %q", s)
	}
}

func (p Permission) Granted() bool {
	return p == PermissionGranted
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	l *log.Logger
}

func NewLogNotifier(l *log.Logger) *LogNotifier {
	return &LogNotifier{l: l}
}

func (n *LogNotifier) Notify(_ context.Context, notification pomomo.Notification) error {
	n.l.Info(notification.Title, "body", notification.Body, "url", notification.URL)
	return nil
}

// Multi delivers to every notifier and returns the combined errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n pomomo.Notification) error {
	var errs *multierror.Error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
