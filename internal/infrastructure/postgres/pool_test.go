package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlovers/petlovers-api/config"
)

func TestPoolOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		DBUser: "pet", DBPassword: "pw", DBHost: "db", DBPort: "5432", DBName: "petlovers", DBSSLMode: "disable",
		DBMaxConns: 12, DBMinConns: 2, DBMaxConnLife: 30 * time.Minute,
	}
	opts := PoolOptionsFrom(cfg, "petlovers-email-worker")

	pc, err := opts.pgxConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "petlovers-email-worker", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "UTC", pc.ConnConfig.RuntimeParams["timezone"])
}

func TestPoolOptionsKeepDSNDefaults(t *testing.T) {
	pc, err := PoolOptions{DSN: "postgres://u:p@localhost:5432/x?pool_max_conns=7"}.pgxConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.NotContains(t, pc.ConnConfig.RuntimeParams, "application_name")

	_, err = PoolOptions{DSN: "postgres://u:p@localhost:notaport/x"}.pgxConfig()
	assert.Error(t, err)
}
