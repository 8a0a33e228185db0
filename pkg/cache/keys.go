package cache

import (
	"strings"
	"time"
)

// Key namespaces of the screening service.
const (
	nsRun    = "run"
	nsScreen = "screen"
	nsLock   = "lock"
)

// RunKey addresses the summary of one run.
func RunKey(runID string) string { return join(nsRun, runID) }

// LatestRunKey addresses the summary of the most recent run.
func LatestRunKey() string { return join(nsRun, "latest") }

// ScreenKey addresses the cached screen of a trading day.
func ScreenKey(day time.Time) string { return join(nsScreen, day.Format(time.DateOnly)) }

// ScreenPattern matches every cached screen, for DeleteByPattern.
func ScreenPattern() string { return nsScreen + ":*" }

// LockKey addresses a named mutual-exclusion lock.
func LockKey(name string) string { return join(nsLock, name) }

func join(parts ...string) string { return strings.Join(parts, ":") }
