//go:build integration

package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var redisClient *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start redis: %v", err)
	}
	_ = resource.Expire(60)

	pool.MaxWait = 30 * time.Second
	if err := pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
		return redisClient.Ping(context.Background()).Err()
	}); err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	code := m.Run()

	redisClient.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge resource: %v", err)
	}
	os.Exit(code)
}

func TestIntegrationRedisStorage(t *testing.T) {
	s := NewRedisStorage(redisClient, fmt.Sprintf("test_%d:", time.Now().UnixNano()))

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("a", []byte("1"), time.Minute))
	require.NoError(t, s.Set("b", []byte("2"), 0))
	val, err = s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, s.Delete("a"))
	val, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, redisClient.Set(context.Background(), "other:key", "x", time.Minute).Err())
	require.NoError(t, s.Reset())
	val, err = s.Get("b")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, "x", redisClient.Get(context.Background(), "other:key").Val())
}
