package reportstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/contactimport/internal/core"
)

func setupRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, ttl), mr
}

func sampleReport() *core.ImportReport {
	r := core.Aggregate([]core.RowOutcome{
		{Kind: core.OutcomeCreated, Line: 2},
		{Kind: core.OutcomeFailed, Line: 3, Message: "Row 3: Missing required field - Name: Bob, Email: "},
	})
	r.ID = "7f1c9a2e-imp"
	r.FileName = "contacts.csv"
	r.Mode = core.ModeBoth
	r.Format = core.FormatCSV
	r.Encoding = "utf-8"
	r.Duration = 1500 * time.Millisecond
	return r
}

func TestRedisSaveAndGet(t *testing.T) {
	store, mr := setupRedis(t, time.Hour)
	ctx := context.Background()

	want := sampleReport()
	require.NoError(t, store.Save(ctx, want))

	assert.True(t, mr.Exists(keyPrefix+want.ID))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+want.ID))

	got, err := store.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisGetMissing(t *testing.T) {
	store, _ := setupRedis(t, time.Hour)

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, core.ErrImportNotFound)
}

func TestRedisReportExpires(t *testing.T) {
	store, mr := setupRedis(t, time.Minute)
	ctx := context.Background()

	report := sampleReport()
	require.NoError(t, store.Save(ctx, report))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, report.ID)
	assert.ErrorIs(t, err, core.ErrImportNotFound)
}

func TestRedisDefaultTTL(t *testing.T) {
	store, _ := setupRedis(t, 0)
	assert.Equal(t, DefaultTTL, store.ttl)
}

func TestSaveRequiresID(t *testing.T) {
	store, _ := setupRedis(t, time.Hour)
	assert.Error(t, store.Save(context.Background(), &core.ImportReport{}))
	assert.Error(t, NewMemory(time.Hour).Save(context.Background(), &core.ImportReport{}))
}

func TestMemorySaveAndGet(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()

	want := sampleReport()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got.Messages[0] = "mutated"
	again, err := store.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Messages[0])
}

func TestMemoryExpiry(t *testing.T) {
	store := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	report := sampleReport()
	require.NoError(t, store.Save(ctx, report))

	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, report.ID)
	assert.ErrorIs(t, err, core.ErrImportNotFound)

	other := sampleReport()
	other.ID = "second"
	require.NoError(t, store.Save(ctx, other))
	assert.Len(t, store.reports, 1)
}
