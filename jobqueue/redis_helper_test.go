package jobqueue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis-backed tests run against a throwaway logical DB and skip when no
// instance is reachable.
const isolatedTestRedisDB = 14

func resolveTestRedisAddr(t *testing.T) string {
	t.Helper()

	addrs := []string{
		os.Getenv("REDIS_ADDR"),
		"localhost:6379",
		"127.0.0.1:6379",
	}

	seen := make(map[string]struct{})
	var lastErr error
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		_ = client.Close()
		if err == nil {
			return addr
		}
		lastErr = err
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return ""
}

func newIsolatedRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := resolveTestRedisAddr(t)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       isolatedTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err := client.Ping(ctx).Err()
	cancel()
	if err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: isolated DB ping failed (%v)", err)
	}

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush isolated redis db %d: %v", isolatedTestRedisDB, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
