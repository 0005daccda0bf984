package log

import (
	"io"

	kitlog "github.com/go-kit/kit/log"
	kitlevel "github.com/go-kit/kit/log/level"
)

const msgKey = "_msg"

type logfmtLogger struct {
	srcLogger kitlog.Logger
}

// Interface assertions
var _ Logger = (*logfmtLogger)(nil)

// NewLogfmtLogger returns a logger that encodes msg and keyvals to the
// writer in logfmt format. Note that underlying logger could be swapped with
// something else.
func NewLogfmtLogger(w io.Writer) Logger {
	return &logfmtLogger{kitlog.With(kitlog.NewLogfmtLogger(w), "ts", kitlog.DefaultTimestampUTC)}
}

func (l *logfmtLogger) Debug(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Debug(l.srcLogger)
	_ = kitlog.With(lWithLevel, msgKey, msg).Log(keyvals...)
}

func (l *logfmtLogger) Info(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Info(l.srcLogger)
	_ = kitlog.With(lWithLevel, msgKey, msg).Log(keyvals...)
}

func (l *logfmtLogger) Error(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Error(l.srcLogger)
	_ = kitlog.With(lWithLevel, msgKey, msg).Log(keyvals...)
}

func (l *logfmtLogger) With(keyvals ...interface{}) Logger {
	return &logfmtLogger{kitlog.With(l.srcLogger, keyvals...)}
}
