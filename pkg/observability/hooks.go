// Package observability provides instrumentation hooks for subprocess
// execution and bundler synchronization.
//
// Libraries emit events through the registered hooks; the CLI decides what
// to do with them (rb logs them at debug level). Nothing but hooks lives in
// the registry: resolution state is always passed explicitly.
//
// Register hooks once at startup:
//
//	observability.SetExecHooks(myExecHooks{})
//	observability.SetSyncHooks(mySyncHooks{})
//
// Emit events around the work:
//
//	start := time.Now()
//	observability.Exec().OnCommandStart(ctx, program, args)
//	err := cmd.Run()
//	observability.Exec().OnCommandComplete(ctx, program, code, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Exec Hooks
// =============================================================================

// ExecHooks receives events for every subprocess rb spawns.
type ExecHooks interface {
	OnCommandStart(ctx context.Context, program string, args []string)

	// OnCommandComplete reports the exit code (-1 when the process never
	// ran) and any error from spawning or waiting.
	OnCommandComplete(ctx context.Context, program string, exitCode int, duration time.Duration, err error)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from bundler synchronization.
type SyncHooks interface {
	OnSyncStart(ctx context.Context, root string)

	// OnSyncComplete reports how the project ended up, e.g. "already-synced"
	// or "synchronized". result is empty when err is set.
	OnSyncComplete(ctx context.Context, root, result string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExecHooks is a no-op implementation of ExecHooks.
type NoopExecHooks struct{}

func (NoopExecHooks) OnCommandStart(context.Context, string, []string) {}
func (NoopExecHooks) OnCommandComplete(context.Context, string, int, time.Duration, error) {
}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnSyncStart(context.Context, string)                                   {}
func (NoopSyncHooks) OnSyncComplete(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	execHooks ExecHooks = NoopExecHooks{}
	syncHooks SyncHooks = NoopSyncHooks{}
	hooksMu   sync.RWMutex
)

// SetExecHooks registers custom exec hooks. A nil value is ignored.
func SetExecHooks(h ExecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		execHooks = h
	}
}

// SetSyncHooks registers custom sync hooks. A nil value is ignored.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// Exec returns the registered exec hooks.
func Exec() ExecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return execHooks
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	execHooks = NoopExecHooks{}
	syncHooks = NoopSyncHooks{}
}
