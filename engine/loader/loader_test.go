package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio/tiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var boxTile = tiletest.Scene{
	Materials:  map[string]any{"m": map[string]any{}},
	Primitives: []tiletest.Primitive{tiletest.Box("m")},
}.Gltf()

func staticFetch(data []byte, calls *atomic.Int32) FetchFunc {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return data, nil
	}
}

// drainN collects results until n have arrived or the deadline passes.
func drainN(t *testing.T, l Loader, n int) []Result {
	t.Helper()
	var out []Result
	deadline := time.Now().Add(5 * time.Second)
	for len(out) < n && time.Now().Before(deadline) {
		out = append(out, l.Drain()...)
		time.Sleep(time.Millisecond)
	}
	require.Len(t, out, n)
	return out
}

func TestLoaderDecodesAndCaches(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	var calls atomic.Int32
	require.True(t, l.Request(Request{Key: "tree/0/0/0/0", Fetch: staticFetch(boxTile, &calls), Tag: 7}))

	res := drainN(t, l, 1)[0]
	require.NoError(t, res.Err)
	assert.Equal(t, 7, res.Tag)
	assert.False(t, res.Cached)
	require.Len(t, res.Content.Meshes, 1)
	assert.Equal(t, 0, l.Active())

	require.True(t, l.Request(Request{Key: "tree/0/0/0/0", Fetch: staticFetch(boxTile, &calls)}))
	res = drainN(t, l, 1)[0]
	require.NoError(t, res.Err)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, l.Stats().Cached)
}

func TestLoaderDeduplicatesPendingKeys(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	gate := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		<-gate
		return boxTile, nil
	}
	require.True(t, l.Request(Request{Key: "a", Fetch: fetch}))
	assert.False(t, l.Request(Request{Key: "a", Fetch: fetch}))

	close(gate)
	drainN(t, l, 1)
	assert.True(t, l.Request(Request{Key: "a", Fetch: fetch}), "key is free once its result was drained")
	drainN(t, l, 1)
}

func TestLoaderMaxActive(t *testing.T) {
	l := NewLoader(BackendTypeGLTF, WithMaxActive(1))
	defer l.Close()

	gate := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		select {
		case <-gate:
			return boxTile, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	var started []string
	for _, key := range []string{"first", "second"} {
		key := key
		require.True(t, l.Request(Request{Key: key, Fetch: fetch, OnStart: func() { started = append(started, key) }}))
	}

	assert.Equal(t, 1, l.Active())
	assert.Equal(t, 1, l.Stats().Queued)
	assert.Equal(t, []string{"first"}, started)

	close(gate)
	first := drainN(t, l, 1)
	assert.Equal(t, "first", first[0].Key)
	assert.Equal(t, []string{"first", "second"}, started)

	second := drainN(t, l, 1)
	assert.Equal(t, "second", second[0].Key)
	assert.Equal(t, Stats{Cached: 2}, l.Stats())
}

func TestLoaderErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	notFound := errors.New("not found")
	l.Request(Request{Key: "missing", Fetch: func(context.Context) ([]byte, error) { return nil, notFound }})
	l.Request(Request{Key: "garbage", Fetch: func(context.Context) ([]byte, error) { return []byte("nonsense"), nil }})
	l.Request(Request{Key: "nofetch"})

	byKey := map[string]error{}
	for _, r := range drainN(t, l, 3) {
		byKey[r.Key] = r.Err
	}
	assert.ErrorIs(t, byKey["missing"], notFound)
	assert.ErrorIs(t, byKey["garbage"], tileio.ErrUnsupportedFormat)
	assert.ErrorIs(t, byKey["nofetch"], ErrNoFetch)
}

func TestLoaderClose(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	fetched := make(chan struct{})
	l.Request(Request{Key: "slow", Fetch: func(ctx context.Context) ([]byte, error) {
		close(fetched)
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	<-fetched

	l.Close()
	assert.False(t, l.Request(Request{Key: "late"}))
	time.Sleep(10 * time.Millisecond)
	assert.Nil(t, l.Drain())
}
