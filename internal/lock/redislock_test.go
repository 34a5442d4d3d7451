package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/lock"
)

func newLocker(t *testing.T) (*lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &lock.Locker{Client: client, Prefix: "lock:", Retry: 5 * time.Millisecond}, mr
}

func TestDoSerialisesHolders(t *testing.T) {
	locker, _ := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	firstIn := make(chan struct{})
	releaseFirst := make(chan struct{})
	errs := make(chan error, 2)

	go func() {
		errs <- locker.Do(ctx, "catalog", time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstIn)
			<-releaseFirst
			return nil
		})
	}()
	<-firstIn

	go func() {
		errs <- locker.Do(ctx, "catalog", time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first"}, order)
	mu.Unlock()

	close(releaseFirst)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestDoReleasesKey(t *testing.T) {
	locker, mr := newLocker(t)
	require.NoError(t, locker.Do(context.Background(), "k", time.Second, func(context.Context) error {
		require.True(t, mr.Exists("lock:k"))
		return nil
	}))
	require.False(t, mr.Exists("lock:k"))
}

func TestDoGivesUpWhenContextEnds(t *testing.T) {
	locker, mr := newLocker(t)
	require.NoError(t, mr.Set("lock:busy", "someone-else"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := locker.Do(ctx, "busy", time.Second, func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNilLockerRunsDirectly(t *testing.T) {
	var locker *lock.Locker
	ran := false
	require.NoError(t, locker.Do(context.Background(), "k", 0, func(context.Context) error {
		ran = true
		return nil
	}))
	require.True(t, ran)
}
