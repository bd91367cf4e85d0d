package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeStartup   EventType = "startup"
	EventTypeRequest   EventType = "request"
	EventTypeLLM       EventType = "llm"
	EventTypeFallback  EventType = "fallback"
	EventTypeStore     EventType = "store"
	EventTypeHeartbeat EventType = "heartbeat"
	EventTypeInvariant EventType = "invariant"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	Op        string    `json:"op,omitempty"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures NewLogger.
type Options struct {
	Level      string
	LLMLogPath string
}

// Logger handles structured logging. Events go to zap; LLM exchanges are
// additionally appended to a size-rotated JSONL file when a path is set.
type Logger struct {
	zl         *zap.Logger
	llmLogPath string
	maxSize    int64
	fileMu     sync.Mutex
}

// NewLogger builds a production zap logger at the requested level.
func NewLogger(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewLoggerWith(zl, opts.LLMLogPath), nil
}

// NewLoggerWith wraps an existing zap logger.
func NewLoggerWith(zl *zap.Logger, llmLogPath string) *Logger {
	return &Logger{
		zl:         zl,
		llmLogPath: llmLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return NewLoggerWith(zap.NewNop(), "")
}

// Zap exposes the underlying logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Log emits a structured event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	fields := []zap.Field{zap.String("type", string(evt.Type))}
	if evt.Op != "" {
		fields = append(fields, zap.String("op", evt.Op))
	}
	if evt.Data != nil {
		fields = append(fields, zap.Any("data", evt.Data))
	}
	msg := evt.Message
	if msg == "" {
		msg = string(evt.Type)
	}

	switch evt.Type {
	case EventTypeInvariant:
		l.zl.Error(msg, fields...)
	case EventTypeFallback:
		l.zl.Warn(msg, fields...)
	case EventTypeLLM, EventTypeHeartbeat:
		l.zl.Debug(msg, fields...)
	default:
		l.zl.Info(msg, fields...)
	}

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			l.zl.Warn("failed to marshal llm event", zap.Error(err))
			return
		}
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		l.zl.Warn("failed to create log directory", zap.Error(err))
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.zl.Warn("failed to open log file", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		l.zl.Warn("failed to write to log file", zap.Error(err))
	}
}

// rotateLogs keeps a single .old generation.
func (l *Logger) rotateLogs() {
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogStartup(msg string, data map[string]any) {
	l.Log(Event{Type: EventTypeStartup, Message: msg, Data: data})
}

func (l *Logger) LogRequest(method, path string, status int, elapsed time.Duration) {
	l.Log(Event{
		Type:    EventTypeRequest,
		Message: method + " " + path,
		Data: map[string]any{
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

func (l *Logger) LogLLM(op, provider, prompt, response string, elapsed time.Duration, err error) {
	data := map[string]any{
		"provider":     provider,
		"prompt":       prompt,
		"response":     response,
		"prompt_chars": len(prompt),
		"elapsed_ms":   elapsed.Milliseconds(),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeLLM, Op: op, Data: data})
}

func (l *Logger) LogFallback(op string, cause error) {
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(Event{
		Type:    EventTypeFallback,
		Op:      op,
		Message: "serving fallback",
		Data:    map[string]string{"cause": reason},
	})
}

func (l *Logger) LogStore(action, id string, count int) {
	l.Log(Event{
		Type:    EventTypeStore,
		Op:      action,
		Message: "strategy store " + action,
		Data: map[string]any{
			"id":    id,
			"count": count,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogInvariant(op string, err error) {
	l.Log(Event{
		Type:    EventTypeInvariant,
		Op:      op,
		Message: "internal invariant violated",
		Data:    map[string]string{"error": err.Error()},
	})
}
