package cache_test

import (
	"context"
	"testing"

	"social-publisher/infrastructure/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := cache.NewCache(context.Background(), mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	rdb, err := cache.NewCache(context.Background(), addr, "", "")
	assert.Error(t, err)
	assert.NotNil(t, rdb)
	_ = rdb.Close()
}
