package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := &PostgresConfig{Username: "u", Password: "p", Database: "testmaker"}
	setDefaults(cfg)

	assert.Equal(t, "host=localhost user=u password=p dbname=testmaker port=5432 sslmode=disable TimeZone=UTC", cfg.BuildDSN())
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)

	cfg.SSLMode = true
	assert.Contains(t, cfg.BuildDSN(), "sslmode=require")

	cfg.DSN = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", cfg.BuildDSN())
}

func TestRedisDefaults(t *testing.T) {
	cfg := &RedisConfig{}
	setRedisDefaults(cfg)
	assert.Equal(t, "localhost:6379", cfg.Addr())
	assert.Equal(t, 10, cfg.PoolSize)
}
