package quadrant

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/quadrant/internal/platform"
	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/dashboard"
)

// --- Types ---

// Service is the dashboard facade returned by New.
type Service = dashboard.Service

// Board is a classified view of the vault.
type Board = dashboard.Board

// Selection names the items of a bulk move.
type Selection = dashboard.Selection

// --- Configuration ---

// Option defines a functional option for configuring a dashboard.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSource injects a custom item source.
func WithSource(src core.ItemSource) Option {
	return platform.WithSource(src)
}

// WithGateway injects a custom mutation gateway.
func WithGateway(g core.Gateway) Option {
	return platform.WithGateway(g)
}

// WithConfigStore injects a custom configuration store.
func WithConfigStore(s core.ConfigStore) Option {
	return platform.WithConfigStore(s)
}

// WithSystemDir sets the hidden directory name (e.g. ".quadrant").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithConfigPath sets the vault-relative path of the configuration document.
func WithConfigPath(path string) Option {
	return platform.WithConfigPath(path)
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithVersioning enables or disables committing mutations to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithStaleTimeout force-releases a file lock held longer than d.
func WithStaleTimeout(d time.Duration) Option {
	return platform.WithStaleTimeout(d)
}

// WithHandoffDelay sets the pause between queued mutations of one file.
func WithHandoffDelay(d time.Duration) Option {
	return platform.WithHandoffDelay(d)
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithLocation sets the zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return platform.WithLocation(loc)
}

// WithBulkConcurrency bounds the parallel mutations of a bulk move.
func WithBulkConcurrency(n int) Option {
	return platform.WithBulkConcurrency(n)
}

// WithWatcherErrorHandler registers a callback for watch loop failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a dashboard over the vault at path.
func New(path string, opts ...Option) (*Service, error) {
	return platform.New(path, opts...)
}

// FindVaultRoot looks upwards from startDir for a vault root indicator.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Change Reasons ---

const (
	ChangeTypeFeat     = platform.ChangeTypeFeat
	ChangeTypeFix      = platform.ChangeTypeFix
	ChangeTypeDocs     = platform.ChangeTypeDocs
	ChangeTypeRefactor = platform.ChangeTypeRefactor
	ChangeTypeChore    = platform.ChangeTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// AppendFooter appends the Quadrant footer to an arbitrary message.
func AppendFooter(msg string) string {
	return platform.AppendFooter(msg)
}

// WithChangeReason attaches the commit message a versioned vault records
// for mutations made with ctx.
func WithChangeReason(ctx context.Context, msg string) context.Context {
	return platform.WithChangeReason(ctx, msg)
}
