package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "gestionbar.com", cfg.Auth.Domain)
	assert.Equal(t, 24, cfg.Auth.TTLHours)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, ":3000", cfg.Address())
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("AUTH_DOMAIN", "example.bar")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "example.bar", cfg.Auth.Domain)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestProductionRequiresSecret(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("PORT", "3000")
	v.Set("AUTH_DOMAIN", "gestionbar.com")
	v.Set("JWT_TTL_HOURS", 24)
	v.Set("DB_MAX_OPEN_CONNS", 10)

	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestPoolOptions(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("DB_CONN_MAX_LIFETIME_MINUTES", "5")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	opts := cfg.Database.PoolOptions()
	assert.Equal(t, 20, opts.MaxOpenConns)
	assert.Equal(t, 10, opts.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, cfg.Database.DSN(), opts.DSN)
	assert.Equal(t, "warn", cfg.Database.LogLevel)

	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	_, err = FromViper(newViper())
	assert.Error(t, err)
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@db/bar", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db/bar", d.DSN())

	d = DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "bar", Port: "5432", TimeZone: "UTC"}
	assert.Contains(t, d.DSN(), "host=db")
	assert.Contains(t, d.DSN(), "dbname=bar")
}
