package config_test

import (
	"testing"
	"time"

	"taskhub/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")
	t.Setenv("WS_REQUIRE_AUTH", "true")

	cfg := config.Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.WSRequireAuth)
	assert.Equal(t, "taskhub:events", cfg.RedisChannel)
}

func TestConfig_DSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "tasks",
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tasks sslmode=disable", cfg.DSN())
}
