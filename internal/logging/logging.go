// Package logging adapts a loopholelabs structured logger to the
// key/value Logger interface the library packages accept.
package logging

import (
	"fmt"
	"io"

	lhlogging "github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
)

// Verbosity levels as counted by the -v flag.
const (
	VerbosityInfo  = 0
	VerbosityDebug = 1
	VerbosityTrace = 2
)

// New creates the root logger of a tool writing to w.
func New(source string, w io.Writer, verbosity int) types.RootLogger {
	log := lhlogging.New(lhlogging.Zerolog, source, w)
	log.SetLevel(Level(verbosity))
	return log
}

// Level maps a -v count to a log level.
func Level(verbosity int) types.Level {
	switch {
	case verbosity >= VerbosityTrace:
		return types.TraceLevel
	case verbosity == VerbosityDebug:
		return types.DebugLevel
	}
	return types.InfoLevel
}

// Adapter exposes a types.Logger through Debug/Info/Error methods taking
// alternating keys and values.
type Adapter struct {
	log types.Logger
}

// NewAdapter wraps log. A nil log discards everything.
func NewAdapter(log types.Logger) *Adapter {
	return &Adapter{log: log}
}

func (a *Adapter) Debug(msg string, keysAndValues ...interface{}) {
	if a != nil && a.log != nil {
		emit(a.log.Debug(), msg, keysAndValues)
	}
}

func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	if a != nil && a.log != nil {
		emit(a.log.Info(), msg, keysAndValues)
	}
}

func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	if a != nil && a.log != nil {
		emit(a.log.Error(), msg, keysAndValues)
	}
}

func emit(ev types.Event, msg string, kv []interface{}) {
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 == len(kv) {
			ev = ev.Str(key, "(MISSING)")
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			if key == "error" {
				ev = ev.Err(v)
			} else {
				ev = ev.Str(key, v.Error())
			}
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case fmt.Stringer:
			ev = ev.Str(key, v.String())
		default:
			ev = ev.Str(key, fmt.Sprint(v))
		}
	}
	ev.Msg(msg)
}
