package config

import (
	"os"
	"strings"
)

// MirrorPullDisabled turns off the pull side of sync (listener subscriptions).
// Push of local mutations still happens. Useful while replaying mirror state
// during migrations.
//
// Set via env:
// - MIRROR_PULL_DISABLED=true
func MirrorPullDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MIRROR_PULL_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// WorkersDisabled turns off the periodic worker scheduler for this instance.
// Lets one deployment own the scheduled jobs while others serve traffic only.
//
// Set via env:
// - WORKERS_DISABLED=true
func WorkersDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("WORKERS_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
