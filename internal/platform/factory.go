package platform

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/quadrant/pkg/adapters/fs"
	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/dashboard"
	"github.com/aretw0/quadrant/pkg/dates"
	"github.com/aretw0/quadrant/pkg/stats"
)

// New creates a dashboard over the vault at path and loads its stored
// configuration. A configuration that fails to load is logged and the
// defaults are used.
//
//	svc, err := quadrant.New("./vault", quadrant.WithReadOnly(true))
func New(path string, opts ...Option) (*dashboard.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if path == "" {
		path = "."
	}

	ctx := context.Background()

	// The vault backs every collaborator that was not injected.
	if o.source == nil || o.gateway == nil || o.store == nil {
		vault, err := openVault(ctx, path, o)
		if err != nil {
			return nil, err
		}
		if o.source == nil {
			o.source = vault
		}
		if o.gateway == nil {
			o.gateway = fs.NewGateway(vault, fs.GatewayConfig{
				StaleAfter:   o.staleAfter,
				HandoffDelay: o.handoff,
				Clock:        o.clock,
			})
		}
		if o.store == nil {
			o.store = fs.NewConfigStore(vault, o.configPath)
		}
	}

	parserOpts := []dates.Option{}
	if o.clock != nil {
		parserOpts = append(parserOpts, dates.WithClock(o.clock))
	}
	if o.location != nil {
		parserOpts = append(parserOpts, dates.WithLocation(o.location))
	}
	parser := dates.NewParser(parserOpts...)
	taskDates := dates.NewTaskDates(dates.TaskDateCacheSize)

	svc := dashboard.New(dashboard.Config{
		Source:  o.source,
		Store:   o.store,
		Gateway: o.gateway,
		Classifier: classify.New(classify.Config{
			Dates:     parser,
			TaskDates: taskDates,
			Logger:    o.logger.With("component", "classify"),
		}),
		Stats:           stats.New(stats.Config{Dates: parser, TaskDates: taskDates}),
		Logger:          o.logger,
		Clock:           o.clock,
		BulkConcurrency: o.bulk,
	})

	// Load logs its own failure; defaults stay in place.
	_ = svc.Load(ctx)
	return svc, nil
}

func openVault(ctx context.Context, path string, o *options) (*fs.Vault, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	versioned := false
	if o.versioned != nil {
		versioned = *o.versioned
	} else if _, err := os.Stat(filepath.Join(abs, ".git")); err == nil {
		versioned = true
		o.logger.Debug("auto-detected versioned vault", "reason", ".git present")
	}

	vault := fs.NewVault(fs.Config{
		Path:         abs,
		SystemDir:    o.systemDir,
		MustExist:    o.mustExist || o.readOnly,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		Versioned:    versioned,
		Location:     o.location,
		ErrorHandler: o.errorHandler,
	})
	if err := vault.Initialize(ctx); err != nil {
		return nil, err
	}
	return vault, nil
}
