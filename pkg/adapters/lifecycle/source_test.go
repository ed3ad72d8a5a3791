package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quadrant/pkg/adapters/lifecycle"
	"github.com/aretw0/quadrant/pkg/core"
)

func TestSource_Bridges(t *testing.T) {
	in := make(chan core.Event, 1)
	src := lifecycle.NewSource(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Path: "a.md"}
	select {
	case e := <-src.Events():
		assert.Equal(t, "MODIFY a.md", e.String())
	case <-time.After(time.Second):
		t.Fatal("event not bridged")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes with the input")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestSource_FiltersTypes(t *testing.T) {
	in := make(chan core.Event, 3)
	src := lifecycle.NewSource(in, core.EventCreate, core.EventDelete)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Path: "a.md"}
	in <- core.Event{Type: core.EventCreate, Path: "b.md"}
	in <- core.Event{Type: core.EventDelete, Path: "c.md"}
	close(in)

	var got []string
	for e := range src.Events() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"CREATE b.md", "DELETE c.md"}, got)
}

func TestSource_StopsOnCancel(t *testing.T) {
	in := make(chan core.Event)
	src := lifecycle.NewSource(in)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed on cancel")
	}
}
