// Package lifecycle bridges vault change events into the lifecycle runtime.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quadrant/pkg/core"
)

type vaultSource struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source re-emitting vault change events.
// When types is non-empty only events of those types pass. The source
// closes its channel once events is closed or the Start context is done.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	return &vaultSource{
		events: events,
		types:  types,
		out:    make(chan lifecycle.Event),
	}
}

func (s *vaultSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *vaultSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				e = ev
			}
			if len(s.types) > 0 && !slices.Contains(s.types, e.Type) {
				continue
			}
			// core.Event satisfies lifecycle.Event through String.
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
