package pipeline

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultLookback is used when no valid cursor exists yet
const defaultLookback = 7 * 24 * time.Hour

// LoadLastRun reads the run cursor from path. A missing or corrupt
// cursor falls back to a default lookback window so a fresh install
// still collects a useful backlog instead of everything or nothing.
func LoadLastRun(path string, now func() time.Time) time.Time {
	b, err := os.ReadFile(path)
	if err != nil {
		warnf("could not read last run time from %s: %v, defaulting to %s ago", path, err, defaultLookback)
		return now().Add(-defaultLookback)
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
	if err != nil {
		warnf("invalid last run time in %s: %v, defaulting to %s ago", path, err, defaultLookback)
		return now().Add(-defaultLookback)
	}

	return t
}

// SaveLastRun writes the cursor for the next run
func SaveLastRun(path string, t time.Time) error {
	if err := os.WriteFile(path, []byte(t.Format(time.RFC3339)), 0o644); err != nil {
		return fmt.Errorf("failed to save last run time: %w", err)
	}
	return nil
}
