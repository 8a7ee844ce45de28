package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreSeedsPartitionOnFirstLoad(t *testing.T) {
	s := newTestRedisStore(t)
	rows, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, "GRV_001", rows[0].ID)
	require.Equal(t, "GRV_004", rows[3].ID)
}

func TestRedisStoreAppendAndGet(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	g := &domain.Grievance{
		ID: "GRV_005", Title: "VPN drops", Category: domain.CategoryIT,
		EmployeeName: "Fiona Patel", EmployeeEmail: "fiona@company.com",
		Status: domain.StatusOpen, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Append(ctx, g))

	got, err := s.Get(ctx, "GRV_005")
	require.NoError(t, err)
	require.Equal(t, "VPN drops", got.Title)
	require.True(t, got.CreatedAt.Equal(now))

	rows, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)
}

func TestRedisStoreSaveOverwritesSingleRow(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	g, err := s.Get(ctx, "GRV_004")
	require.NoError(t, err)
	g.Status = domain.StatusWIP
	g.AssignedTo = "Admin Two"
	require.NoError(t, s.Save(ctx, g))

	got, err := s.Get(ctx, "GRV_004")
	require.NoError(t, err)
	require.Equal(t, domain.StatusWIP, got.Status)
	require.Equal(t, "Admin Two", got.AssignedTo)

	other, err := s.Get(ctx, "GRV_003")
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, other.Status)
}

func TestRedisStoreSaveUnknownIDIsNotFound(t *testing.T) {
	s := newTestRedisStore(t)
	err := s.Save(context.Background(), &domain.Grievance{ID: "GRV_999"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestRedisStoreDoesNotReseedEmptiedPartition(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client)
	ctx := context.Background()

	_, err := s.LoadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Del(ctx, "grievance:tickets").Err())

	rows, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}
