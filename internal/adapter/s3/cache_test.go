package s3

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
)

// countingDownloader serves canned bodies and counts fetches per key.
type countingDownloader struct {
	bodies map[string][]byte
	calls  map[string]int
}

func (d *countingDownloader) Download(_ context.Context, _, key string) ([]byte, error) {
	d.calls[key]++
	body, ok := d.bodies[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return body, nil
}

func newCountingDownloader(bodies map[string][]byte) *countingDownloader {
	return &countingDownloader{bodies: bodies, calls: make(map[string]int)}
}

func TestCachedDownloader(t *testing.T) {
	inner := newCountingDownloader(map[string][]byte{"k1": []byte("one")})
	cached := NewCachedDownloader(inner, 4, observability.NewMetricsForTesting())
	ctx := context.Background()

	data, err := cached.Download(ctx, "bucket", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	data, err = cached.Download(ctx, "bucket", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.Equal(t, 1, inner.calls["k1"], "second read should hit the cache")
}

func TestCachedDownloaderDoesNotCacheFailures(t *testing.T) {
	inner := newCountingDownloader(map[string][]byte{})
	cached := NewCachedDownloader(inner, 4, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := cached.Download(ctx, "bucket", "absent")
	require.Error(t, err)
	_, err = cached.Download(ctx, "bucket", "absent")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls["absent"])
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("1"))
	c.put("b", []byte("2"))

	// Touch a so b becomes the eviction candidate.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", []byte("3"))

	_, ok = c.get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCacheUpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("1"))
	c.put("a", []byte("updated"))

	data, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("updated"), data)
	assert.Len(t, c.entries, 1)
}
