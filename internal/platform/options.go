package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/quadrant/pkg/core"
)

// options holds the internal configuration for a dashboard.
type options struct {
	source  core.ItemSource
	gateway core.Gateway
	store   core.ConfigStore
	logger  *slog.Logger

	systemDir    string
	configPath   string
	mustExist    bool
	readOnly     bool
	versioned    *bool
	staleAfter   time.Duration
	handoff      time.Duration
	clock        func() time.Time
	location     *time.Location
	bulk         int
	errorHandler func(error)
}

// Option defines a functional option for configuring a dashboard.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSource injects a custom item source. The filesystem vault is still
// used for the configuration document and mutations unless those are
// injected too.
func WithSource(src core.ItemSource) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithGateway injects a custom mutation gateway.
func WithGateway(g core.Gateway) Option {
	return func(o *options) {
		o.gateway = g
	}
}

// WithConfigStore injects a custom configuration store.
func WithConfigStore(s core.ConfigStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithSystemDir sets the hidden directory holding the index (".quadrant").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithConfigPath sets the vault-relative path of the configuration document.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithMustExist fails New when the vault directory does not exist instead
// of creating it.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations and configuration saves return core.ErrReadOnly.
// 2. Initialization (Mkdir, Git Init) is skipped.
// 3. The index is not persisted to disk.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithVersioning commits every mutation to git.
// When not set, versioning is enabled only if the vault already is a git
// repository.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioned = &enabled
	}
}

// WithStaleTimeout force-releases a file lock held longer than d.
func WithStaleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.staleAfter = d
	}
}

// WithHandoffDelay sets the pause between queued mutations of one file.
// Negative disables it.
func WithHandoffDelay(d time.Duration) Option {
	return func(o *options) {
		o.handoff = d
	}
}

// WithClock overrides the time source of the date engines and the gateway.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithLocation sets the zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithBulkConcurrency bounds the parallel mutations of a bulk move.
func WithBulkConcurrency(n int) Option {
	return func(o *options) {
		o.bulk = n
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring during
// the watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
