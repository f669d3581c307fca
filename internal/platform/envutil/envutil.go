package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns the trimmed value of name and whether it was set to something non-blank.
func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// parsed reads name through parse. Unset or unparsable values yield def.
func parsed[T any](name string, def T, parse func(string) (T, error)) T {
	raw, ok := lookup(name)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func String(name, def string) string {
	if v, ok := lookup(name); ok {
		return v
	}
	return def
}

func Int(name string, def int) int { return parsed(name, def, strconv.Atoi) }

func Float(name string, def float64) float64 {
	return parsed(name, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func Bool(name string, def bool) bool {
	raw, _ := lookup(name)
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// Seconds reads a whole number of seconds. A Go duration string ("90s", "2m") is accepted too.
func Seconds(name string, def time.Duration) time.Duration {
	return parsed(name, def, func(s string) (time.Duration, error) {
		if n, err := strconv.Atoi(s); err == nil {
			if n < 0 {
				return 0, strconv.ErrRange
			}
			return time.Duration(n) * time.Second, nil
		}
		d, err := time.ParseDuration(s)
		if err == nil && d < 0 {
			return 0, strconv.ErrRange
		}
		return d, err
	})
}
