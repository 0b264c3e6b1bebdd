package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Client.SafetyTimeout)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxImageBytes)
	assert.Equal(t, "eventix", cfg.Auth.Issuer)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EVENTIX_SERVER_PORT", "9090")
	t.Setenv("EVENTIX_DATABASE_DBNAME", "eventix_test")
	t.Setenv("EVENTIX_CLIENT_SAFETY_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "eventix_test", cfg.Database.DBName)
	assert.Equal(t, 3*time.Second, cfg.Client.SafetyTimeout)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "eventix", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=eventix sslmode=disable", c.DSN())
}
