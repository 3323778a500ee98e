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

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: hackathon
    user: matcher
  redis:
    address: localhost:6379
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, BackendTFIDF, cfg.Matching.Backend)
	assert.Equal(t, 0.6, cfg.Matching.Threshold)
	assert.Equal(t, 10, cfg.Matching.Limit)
	assert.Equal(t, 1000, cfg.Matching.MaxFeatures)
	assert.Equal(t, WeightsConfig{Skill: 0.40, Experience: 0.25, Interest: 0.20, Availability: 0.15}, cfg.Matching.Weights)
	assert.Equal(t, "open_spot", cfg.Matching.AvailabilityPolicy)
	assert.Equal(t, SourcePostgres, cfg.Matching.CandidateSource)
	assert.Equal(t, 1800, cfg.Matching.CacheTTL)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "teams", cfg.Database.Elasticsearch.TeamIndex)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExplicitZeroThresholdKept(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
matching:
  threshold: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Matching.Threshold)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_MATCH_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
matching:
  backend: tfidf
workers:
  match-user-to-teams:
    enabled: true
`))
	require.NoError(t, err)

	cfg2, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: hackathon
    user: matcher
    password: ${TEST_MATCH_DB_PASSWORD}
  redis:
    address: localhost:6379
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg2.Database.Postgres.Password)
	w := GetWorkerConfig(cfg, "match-user-to-teams")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		base    string
		wantErr string
	}{
		{
			name:    "missing broker",
			base:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n  redis:\n    address: r\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "weights must sum to one",
			base:    minimalConfig,
			extra:   "matching:\n  weights:\n    skill: 0.5\n    experience: 0.5\n    interest: 0.5\n    availability: 0\n",
			wantErr: "must sum to 1.0",
		},
		{
			name:    "unknown backend",
			base:    minimalConfig,
			extra:   "matching:\n  backend: bm25\n",
			wantErr: "matching.backend",
		},
		{
			name:    "semantic needs a key",
			base:    minimalConfig,
			extra:   "matching:\n  backend: semantic\n",
			wantErr: "embedding.api_key",
		},
		{
			name:    "elasticsearch source needs addresses",
			base:    minimalConfig,
			extra:   "matching:\n  candidate_source: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name:    "threshold out of range",
			base:    minimalConfig,
			extra:   "matching:\n  threshold: 1.5\n",
			wantErr: "matching.threshold",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("GOOGLE_API_KEY", "")
			t.Setenv("ZEEBE_ADDRESS", "")
			_, err := LoadFromFile(writeConfig(t, tt.base+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_CamundaDisabled(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "")
	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  disabled: true
database:
  postgres:
    host: localhost
    database: hackathon
    user: matcher
  redis:
    address: localhost:6379
`))
	require.NoError(t, err)
	assert.True(t, cfg.Camunda.Disabled)
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"analyze-skill-gaps": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "analyze-skill-gaps"))
	assert.True(t, IsWorkerEnabled(cfg, "match-user-to-teams"))
}
