package guard

import (
	"sync"

	"go.uber.org/zap"
)

// Event is one emitted log event: a code, the opaque account string the
// caller supplied, and a free-form detail. The validator never
// interprets account beyond carrying it through to the sink.
type Event struct {
	Code    LogCode
	Account string
	Detail  string
}

// Sink receives every log event ValidateGuards emits: exactly one per
// rejection, plus an informational INSTRUCTION_COUNT event on
// acceptance. A Sink must never fail the validator; Emit has no return
// value for that reason.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event. It is the default when no sink is
// supplied.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
)

// Logger returns the package's shared zap logger, defaulting to a no-op
// logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() { logger = zap.NewNop() })
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger installs the logger ZapSink (and any other package
// diagnostics) write through. Call before the first validation if
// structured logging is wanted; otherwise everything is silently
// discarded.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// ZapSink emits one structured log line per event through the package
// logger (see Logger/SetLogger), at warn level for rejections and info
// level for the informational INSTRUCTION_COUNT event.
type ZapSink struct{}

// Emit implements Sink.
func (ZapSink) Emit(e Event) {
	fields := []zap.Field{
		zap.String("code", string(e.Code)),
		zap.String("account", e.Account),
		zap.String("detail", e.Detail),
	}
	if e.Code == INSTRUCTION_COUNT {
		Logger().Info("hook validation", fields...)
		return
	}
	Logger().Warn("hook validation rejected", fields...)
}
