package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the zap preset and how learner data is scrubbed.
// Mode "prod"/"production" emits JSON, "test" discards, anything else is the
// console development preset.
type Options struct {
	Mode  string
	Level string
	// Redact hides secrets and replaces learner ids with salted hashes.
	Redact   bool
	HashSalt string
}

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

func New(mode string) (*Logger, error) {
	return NewWithOptions(Options{Mode: mode, Redact: true})
}

func NewWithOptions(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "test":
		return Nop(), nil
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl := strings.TrimSpace(opts.Level); lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", lvl, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	l := &Logger{SugaredLogger: zl.Sugar()}
	if opts.Redact {
		l.scrub = &scrubber{salt: opts.HashSalt}
	}
	return l, nil
}

// FromZap wraps an existing core, mostly for tests that observe output.
func FromZap(z *zap.Logger, opts Options) *Logger {
	l := &Logger{SugaredLogger: z.Sugar()}
	if opts.Redact {
		l.scrub = &scrubber{salt: opts.HashSalt}
	}
	return l
}

func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, l.scrub.apply(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, l.scrub.apply(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, l.scrub.apply(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, l.scrub.apply(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, l.scrub.apply(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.scrub.apply(kv)...), scrub: l.scrub}
}

// scrubber rewrites key/value pairs before they reach zap. A nil scrubber
// passes everything through.
type scrubber struct {
	salt string
}

var secretKeys = []string{"password", "secret", "dsn", "token", "api_key"}

// Learner ids are hashed. Grader, course and outcome ids stay readable.
var learnerKeys = map[string]bool{"userid": true, "user_id": true, "userids": true, "user_ids": true}

func (s *scrubber) apply(kv []any) []any {
	if s == nil || len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		out = append(out, key, s.value(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (s *scrubber) value(key string, v any) any {
	if learnerKeys[key] {
		return s.hash(v)
	}
	for _, frag := range secretKeys {
		if strings.Contains(key, frag) {
			return "[REDACTED]"
		}
	}
	return v
}

func (s *scrubber) hash(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []uint:
		out := make([]string, len(t))
		for i, id := range t {
			out[i] = s.hash(id).(string)
		}
		return out
	}
	sum := sha256.Sum256([]byte(s.salt + fmt.Sprint(v)))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
