package utils

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "map")
	t.Setenv("PG_PASSWORD", "pw")
	t.Setenv("PG_DB", "")
	t.Setenv("PG_SSLMODE", "")
	assert.Equal(t, "postgres://map:pw@db:6543/passport?sslmode=disable", BuildPostgresDSNFromEnv())
}

func TestEnsureSelfSignedCert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "passport-map.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	// 已存在时不重写
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
}
