package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Redis address - uses docker-compose setup, same as the rest of
// the codebase's Redis-backed tests.
const testRedisHost = "localhost"
const testRedisPort = 6380

func TestNewClientConnectsAndRejectsMissingHost(t *testing.T) {
	c, err := NewClient(context.Background(), testRedisHost, testRedisPort, "")
	require.NoError(t, err, "should connect to redis successfully")
	require.NotNil(t, c)
	defer c.Close()

	_, err = NewClient(context.Background(), "", testRedisPort, "")
	assert.Error(t, err, "should reject a missing host")
}

func TestSetAndGetRoundTripsJSON(t *testing.T) {
	c, err := NewClient(context.Background(), testRedisHost, testRedisPort, "")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	key := ProfileCacheKey("octocat-set-get")
	defer c.Delete(ctx, key)

	type payload struct {
		Username string `json:"username"`
		Score    int    `json:"score"`
	}
	want := payload{Username: "octocat", Score: 42}
	require.NoError(t, c.Set(ctx, key, want))

	var got payload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)
}

func TestGetReportsMissWithoutError(t *testing.T) {
	c, err := NewClient(context.Background(), testRedisHost, testRedisPort, "")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	var got map[string]string
	hit, err := c.Get(ctx, ProfileCacheKey("no-such-user"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSetWithTTLExpiresQuickly(t *testing.T) {
	c, err := NewClient(context.Background(), testRedisHost, testRedisPort, "")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	key := ProfileCacheKey("expiring-key")
	require.NoError(t, c.SetWithTTL(ctx, key, "value", 50*time.Millisecond))

	time.Sleep(150 * time.Millisecond)

	var got string
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "expected the key to have expired")
}

func TestDeletePatternRemovesMatchingKeys(t *testing.T) {
	c, err := NewClient(context.Background(), testRedisHost, testRedisPort, "")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	repo := "acme/widgets-delete-pattern"
	for page := 1; page <= 3; page++ {
		require.NoError(t, c.Set(ctx, ContributorPageCacheKey(repo, page), []string{"alice", "bob"}))
	}

	deleted, err := c.DeletePattern(ctx, CacheKey("contributors", repo, "*"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	var got []string
	hit, err := c.Get(ctx, ContributorPageCacheKey(repo, 1), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheKeyHelpersFormatConsistently(t *testing.T) {
	assert.Equal(t, "profile:github:octocat", ProfileCacheKey("octocat"))
	assert.Equal(t, "contributors:acme/widgets:page2", ContributorPageCacheKey("acme/widgets", 2))
}

func TestNewClientFromURLParsesHostPortAndPassword(t *testing.T) {
	url := fmt.Sprintf("redis://%s:%d", testRedisHost, testRedisPort)
	c, err := NewClientFromURL(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()

	key := ProfileCacheKey("from-url-test")
	defer c.Delete(context.Background(), key)
	require.NoError(t, c.Set(context.Background(), key, "ok"))
}

func TestNewClientFromURLRejectsEmptyURL(t *testing.T) {
	_, err := NewClientFromURL(context.Background(), "")
	assert.Error(t, err)
}
