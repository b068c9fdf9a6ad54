// Package log is the process-wide logger. It keeps the small Debug/Error
// call surface used across the bridge and routes everything through logrus.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var l = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(w)
	lg.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	lg.SetLevel(logrus.InfoLevel)
	return lg
}

// SetLevel accepts logrus level names ("debug", "info", "warn", ...).
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, e.g. away from the terminal while the TUI runs.
func SetOutput(w io.Writer) {
	l.SetOutput(w)
}

// With returns an entry carrying structured fields.
func With(fields map[string]any) *logrus.Entry {
	return l.WithFields(logrus.Fields(fields))
}

func Debug(msg any) {
	l.Debug(msg)
}

func DebugF(format string, a ...any) {
	l.Debugf(format, a...)
}

func Info(msg any) {
	l.Info(msg)
}

func InfoF(format string, a ...any) {
	l.Infof(format, a...)
}

func Warn(msg any) {
	l.Warn(msg)
}

func WarnF(format string, a ...any) {
	l.Warnf(format, a...)
}

func Error(msg any) {
	l.Error(msg)
}

func ErrorF(format string, a ...any) {
	l.Errorf(format, a...)
}

func Fatal(msg any) {
	l.Fatal(msg)
}

func FatalF(format string, a ...any) {
	l.Fatalf(format, a...)
}
