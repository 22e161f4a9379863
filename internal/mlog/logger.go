// Package mlog holds the process-wide logger.
package mlog

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var (
	l   = initLogger()
	nop = zerolog.Nop()
)

func initLogger() zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if ok, _ := strconv.ParseBool(os.Getenv("DOHGATE_JSONLOGGER")); ok {
		out = os.Stderr
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// L returns the process logger.
func L() *zerolog.Logger {
	return &l
}

// SetLvl changes the level of the process logger. It must be called before
// the logger is shared with other goroutines.
func SetLvl(lvl zerolog.Level) {
	l = l.Level(lvl)
}

func Nop() *zerolog.Logger {
	return &nop
}

// WriteToLogger returns a writer logging each write as one event, for
// adapting APIs that want a *log.Logger, like http.Server.ErrorLog.
func WriteToLogger(to *zerolog.Logger, lvl zerolog.Level, msg string) io.Writer {
	return &logCatcher{logger: to, lvl: lvl, msg: msg}
}

type logCatcher struct {
	logger *zerolog.Logger
	lvl    zerolog.Level
	msg    string
}

func (w *logCatcher) Write(b []byte) (int, error) {
	w.logger.WithLevel(w.lvl).Bytes("data", bytes.TrimSpace(b)).Msg(w.msg)
	return len(b), nil
}
