package logx

import "github.com/sirupsen/logrus"

var instance *logrus.Logger

// L returns the shared logger. Text output by default; Setup switches to
// JSON in production.
func L() *logrus.Logger {
	if instance == nil {
		instance = logrus.New()
	}
	return instance
}

// Setup configures the shared logger for the given environment.
func Setup(environment string) {
	l := L()
	if environment == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
		return
	}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.DebugLevel)
}
