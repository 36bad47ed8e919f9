package logger

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
	GetLogs(level string, limit, offset int) ([]LogEntry, error)
	GetLogById(id string) (*LogEntry, error)
}

var ErrLogNotFound = errors.New("log not found")

const (
	defaultPageSize = 50
	maxLineBytes    = 1 << 20
)

type ZapLogger struct {
	logger   *zap.Logger
	filePath string
}

// fileCore writes JSON lines at info and above to a size-rotated file.
func fileCore(path string) zapcore.Core {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), zap.InfoLevel)
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func wrap(core zapcore.Core, path string) *ZapLogger {
	// caller skip 1 so the reported caller is whoever called Info/Warn/...
	return &ZapLogger{
		logger:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		filePath: path,
	}
}

// NewZapLogger writes JSON lines to a rotated file and mirrors everything to stdout.
// Outside production stdout gets the human-readable console encoding.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	console := jsonEncoder()
	if !isProd {
		console = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	stdout := zapcore.NewCore(console, zapcore.Lock(os.Stdout), zap.DebugLevel)
	return wrap(zapcore.NewTee(fileCore(logFilePath), stdout), logFilePath)
}

// NewIsolatedLogger writes only to its file. Editor sessions log every frame,
// which would drown the main console output.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	return wrap(fileCore(logFilePath), logFilePath)
}

// NewNopLogger discards everything. Used by tests and quiet CLI runs.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zapcore.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zapcore.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zapcore.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zapcore.ErrorLevel, module, message, details)
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	ce := l.logger.Check(level, message)
	if ce == nil {
		return
	}
	fields := []zap.Field{zap.String("module", module)}
	if details == nil {
		details = map[string]interface{}{}
	}
	// zap.Any renders an error nested in a map as {}.
	if err, ok := details["error"].(error); ok {
		details["error"] = err.Error()
		fields = append(fields, zap.Error(err))
	}
	ce.Write(append(fields, zap.Any("details", details))...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// LogEntry is one JSON line of the log file, as served by the diagnostics endpoint.
type LogEntry struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Module    string                 `json:"module,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// readEntries parses the active log file in write order. Rotated backups are
// gzipped and not read. Lines that are not JSON are skipped.
func (l *ZapLogger) readEntries(keep func(LogEntry) bool) ([]LogEntry, error) {
	if l.filePath == "" {
		return nil, nil
	}
	f, err := os.Open(l.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []LogEntry
	for sc.Scan() {
		var e LogEntry
		if json.Unmarshal(sc.Bytes(), &e) != nil {
			continue
		}
		if e.Id == "" {
			sum := md5.Sum(sc.Bytes())
			e.Id = hex.EncodeToString(sum[:])
		}
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, sc.Err()
}

// GetLogs returns file entries newest first, optionally filtered by level.
func (l *ZapLogger) GetLogs(level string, limit, offset int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset = max(offset, 0)

	entries, err := l.readEntries(func(e LogEntry) bool {
		return level == "" || e.Level == level
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)

	if offset >= len(entries) {
		return []LogEntry{}, nil
	}
	return entries[offset:min(offset+limit, len(entries))], nil
}

func (l *ZapLogger) GetLogById(id string) (*LogEntry, error) {
	entries, err := l.readEntries(func(e LogEntry) bool { return e.Id == id })
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrLogNotFound
	}
	return &entries[len(entries)-1], nil
}
