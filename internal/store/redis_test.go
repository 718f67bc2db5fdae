package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func openTestRedis(t *testing.T) *Redis {
	t.Helper()
	srv := miniredis.RunT(t)
	r, err := OpenRedis(srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedisSeenAndMarkSeen(t *testing.T) {
	r := openTestRedis(t)
	ctx := context.Background()

	seen, err := r.Seen(ctx, "con_new_token")
	require.NoError(t, err)
	require.False(t, seen)

	first := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "NEW", FirstSeen: first}))

	seen, err = r.Seen(ctx, "con_new_token")
	require.NoError(t, err)
	require.True(t, seen)

	known, err := r.Known(ctx)
	require.NoError(t, err)
	require.Len(t, known, 1)
	require.Equal(t, "con_new_token", known[0].Contract)
	require.Equal(t, "NEW", known[0].Symbol)
	require.True(t, known[0].FirstSeen.Equal(first))
}

func TestRedisMarkSeenKeepsFirstEntry(t *testing.T) {
	r := openTestRedis(t)
	ctx := context.Background()

	first := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "NEW", FirstSeen: first}))
	require.NoError(t, r.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "RENAMED", FirstSeen: first.Add(time.Hour)}))

	known, err := r.Known(ctx)
	require.NoError(t, err)
	require.Len(t, known, 1)
	require.Equal(t, "NEW", known[0].Symbol)
	require.True(t, known[0].FirstSeen.Equal(first))
}

func TestRedisOpenFailsWithoutServer(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := OpenRedis(addr, "", 0)
	require.Error(t, err)
}
