package bookclient

import "github.com/sirupsen/logrus"

// Notifier receives the user-facing outcome of every mutation: a short
// title and a descriptive message. UI layers render these as transient
// notifications; mutations never let an error propagate past it
// unreported.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

// LogNotifier is the default Notifier, writing notifications to the
// structured log.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n LogNotifier) Success(title, description string) {
	n.Log.WithField("description", description).Info(title)
}

func (n LogNotifier) Error(title, description string) {
	n.Log.WithField("description", description).Warn(title)
}
