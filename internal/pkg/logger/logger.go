package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a zap logger for mode ("production", "test" or development).
// LOG_LEVEL overrides the mode's default level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		lvl, err := zap.ParseAtomicLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.Level = lvl
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, scrub(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, scrub(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(kv)...)}
}

type scrubPolicy struct {
	enabled bool
	salt    string
}

var (
	policyOnce sync.Once
	policy     scrubPolicy
)

func currentPolicy() scrubPolicy {
	policyOnce.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			policy.enabled = false
		default:
			policy.enabled = true
		}
		policy.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return policy
}

// scrub rewrites key/value pairs before they reach zap: credentials are
// redacted, session ids hashed and transcript text reduced to its length.
func scrub(kv []any) []any {
	p := currentPolicy()
	if len(kv) == 0 || !p.enabled {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			out = append(out, kv[i])
			break
		}
		key := stringify(kv[i])
		out = append(out, key, scrubValue(p, strings.ToLower(key), kv[i+1]))
	}
	return out
}

func scrubValue(p scrubPolicy, key string, val any) any {
	switch {
	case key == "":
		return val
	case isSecretKey(key):
		return "[REDACTED]"
	case strings.Contains(key, "session_id"):
		return hashID(p.salt, stringify(val))
	case isTranscriptKey(key):
		return fmt.Sprintf("[%d chars]", len(stringify(val)))
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return "[REDACTED]"
	}
	return val
}

func isSecretKey(key string) bool {
	for _, frag := range []string{"token", "authorization", "password", "secret", "cookie", "api_key", "dsn"} {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// Call transcripts and reviewer comments can carry customer data.
func isTranscriptKey(key string) bool {
	switch key {
	case "text", "full_text", "transcript", "comments", "comment":
		return true
	}
	return false
}

func hashID(salt, raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
