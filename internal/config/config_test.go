package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  environment: test
  port: "9090"
  jwt_signing_key: secret
postgres:
  user: fest
  db: festdb
announce:
  driver: webhook
  webhook_url: http://hooks.local/publish
`)

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", conf.API.Environment)
	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, "secret", conf.API.JWTSigningKey)
	assert.Equal(t, "webhook", conf.Announce.Driver)
	assert.Equal(t, "postgres", conf.Blob.Driver)
	assert.Equal(t, 5, conf.Ticket.MaxAttempts)
	assert.Equal(t, 10*time.Second, conf.External.Timeout)
	assert.Equal(t, "host=localhost port=5432 user=fest password= dbname=festdb sslmode=disable", conf.Postgres.DSN())
	assert.NotEmpty(t, conf.Campus.EmailDomains)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
api:
  port: "9090"
  jwt_signing_key: secret
`)
	t.Setenv("API_PORT", "7070")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", conf.API.Port)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := map[string]string{
		"missing signing key": `
api:
  port: "9090"
`,
		"unknown announce driver": `
api:
  jwt_signing_key: secret
announce:
  driver: pigeon
`,
		"unknown blob driver": `
api:
  jwt_signing_key: secret
blob:
  driver: floppy
`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
