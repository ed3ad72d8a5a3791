package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// VaultState exposes internal state for observability.
type VaultState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	IndexSize     int        `json:"index_size"`
	ReadOnly      bool       `json:"read_only"`
	Versioned     bool       `json:"versioned"`
	WatcherActive bool       `json:"watcher_active"`
	LastScan      *time.Time `json:"last_scan,omitempty"`
	LastScanFiles int        `json:"last_scan_files"`
}

// State implements introspection.Introspectable.
func (v *Vault) State() any {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return VaultState{
		Path:          v.Path,
		SystemDir:     v.config.SystemDir,
		IndexSize:     v.cache.Len(),
		ReadOnly:      v.config.ReadOnly,
		Versioned:     v.git != nil,
		WatcherActive: v.watcherActive,
		LastScan:      v.lastScan,
		LastScanFiles: v.lastScanFiles,
	}
}

// ComponentType implements introspection.Component.
func (v *Vault) ComponentType() string {
	return "vault"
}

// GatewayState exposes mutation counters and the per-file lock table.
type GatewayState struct {
	Applied   int64      `json:"applied"`
	Failed    int64      `json:"failed"`
	LastError string     `json:"last_error,omitempty"`
	LastWrite *time.Time `json:"last_write,omitempty"`
	Locks     any        `json:"locks"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	g.mu.Lock()
	defer g.mu.Unlock()

	return GatewayState{
		Applied:   g.applied,
		Failed:    g.failed,
		LastError: g.lastError,
		LastWrite: g.lastWrite,
		Locks:     g.locks.State(),
	}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "gateway"
}

var (
	_ introspection.Introspectable = (*Vault)(nil)
	_ introspection.Component      = (*Vault)(nil)
	_ introspection.Introspectable = (*Gateway)(nil)
	_ introspection.Component      = (*Gateway)(nil)
)
