package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: compliance
    user: compliance
  redis:
    address: localhost:6379
workers:
  run-notification-checks:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "notifications", cfg.Database.Elasticsearch.NotificationIndex)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 300, cfg.Notifications.ContactCacheTTL)
	assert.Equal(t, "letting-compliance", cfg.Observability.ServiceName)

	w := cfg.Workers["run-notification-checks"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_CRON_SECRET_VALUE", "s3cret")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: compliance
    user: compliance
  redis:
    address: localhost:6379
http:
  cron_secret: ${TEST_CRON_SECRET_VALUE}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.HTTP.CronSecret)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "unknown email provider",
			body: `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: compliance
    user: compliance
  redis:
    address: localhost:6379
notifications:
  email:
    provider: carrier-pigeon
`,
			wantErr: "notifications.email.provider",
		},
		{
			name: "search without elasticsearch",
			body: `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: compliance
    user: compliance
  redis:
    address: localhost:6379
notifications:
  search:
    enabled: true
`,
			wantErr: "database.elasticsearch.addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	w := GetWorkerConfig(cfg, "missing")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
}
