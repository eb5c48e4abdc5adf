// ABOUTME: Per-tag level overrides from the LOGLEVEL environment variable
// ABOUTME: Accepts comma-separated "tag=level" directives or a bare default level
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

const envVar = "LOGLEVEL"

var (
	tagMu     sync.RWMutex
	tagLevels = map[string]Level{}
)

func init() {
	if err := ParseDirectives(os.Getenv(envVar)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", envVar, err)
	}
}

// ParseDirectives applies "level" or "tag=level" directives separated by
// commas. Valid directives are applied even if others fail.
func ParseDirectives(s string) error {
	var bad []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := ParseLevel(v[len(v)-1])
		if err != nil {
			bad = append(bad, d)
			continue
		}
		if len(v) == 1 {
			DefaultLogger.SetLevel(level)
			continue
		}
		SetTagLevel(v[0], level)
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid directives: %s", strings.Join(bad, ", "))
	}
	return nil
}

// SetTagLevel overrides the level for one tag.
func SetTagLevel(tag string, level Level) {
	tagMu.Lock()
	tagLevels[tag] = level
	tagMu.Unlock()
}

func tagLevel(tag string) (Level, bool) {
	tagMu.RLock()
	defer tagMu.RUnlock()
	level, ok := tagLevels[tag]
	return level, ok
}
