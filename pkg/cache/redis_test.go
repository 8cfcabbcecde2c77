package cache

import (
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/pkg/config"
)

func TestNewRedisDisabledReturnsNil(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisConnects(t *testing.T) {
	srv := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(srv.Addr(), ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewRedis(config.RedisConfig{Enabled: true, Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, srv.Addr(), client.Options().Addr)
}

func TestNewRedisUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(srv.Addr(), ":")
	port, _ := strconv.Atoi(portStr)
	srv.Close()

	client, err := NewRedis(config.RedisConfig{Enabled: true, Host: host, Port: port})
	require.Error(t, err)
	assert.Nil(t, client)
}
