package logsvc

import (
	"io"
	"io/ioutil"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/masomo-admin/core"
)

// RollbarLogger reports to Rollbar and writes structured lines through logrus.
type RollbarLogger struct {
	std *logrus.Entry
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(out io.Writer, component string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	std := logrus.New()
	std.SetOutput(out)
	if conf.IsProd() {
		std.SetFormatter(&logrus.JSONFormatter{})
	} else {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)

	return &RollbarLogger{std: std.WithField("component", component)}
}

// NewTestLogger discards everything and never reaches Rollbar.
func NewTestLogger() *RollbarLogger {
	l := NewRollbarLogger(ioutil.Discard, "test", core.NewTestConfig())
	l.Enable(false)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Actor
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, *logrus.Entry) {
	var actorSet bool
	entry := l.std
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case core.Actor:
			if !actorSet { // only set one Actor
				rollbar.SetPerson(v.ID, v.Username, v.Email)
				entry = entry.WithFields(logrus.Fields{"user": v.Username, "school": v.SchoolID})
				actorSet = true
			}
			continue
		case error:
			entry = entry.WithError(v)
		case map[string]interface{}:
			entry = entry.WithFields(v)
		}
		newArgs = append(newArgs, arg)
	}
	if !actorSet {
		rollbar.ClearPerson()
	}
	return newArgs, entry
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	entry.Debug(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	entry.Info(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	entry.Warn(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	entry.Error(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	entry.Fatal(msg)
}
