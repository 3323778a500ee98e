package config

import "fmt"

type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Matching  MatchingConfig          `mapstructure:"matching"`
	Embedding EmbeddingConfig         `mapstructure:"embedding"`
	HTTP      HTTPConfig              `mapstructure:"http"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name             string `mapstructure:"name"`
	Version          string `mapstructure:"version"`
	Environment      string `mapstructure:"environment"`
	ActivityRegistry string `mapstructure:"activity_registry"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Disabled       bool   `mapstructure:"disabled"` // serve the HTTP API only
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	TeamIndex string   `mapstructure:"team_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

const (
	BackendTFIDF    = "tfidf"
	BackendSemantic = "semantic"

	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
)

type MatchingConfig struct {
	Backend            string        `mapstructure:"backend"` // tfidf | semantic
	Threshold          float64       `mapstructure:"threshold"`
	Limit              int           `mapstructure:"limit"`
	MaxFeatures        int           `mapstructure:"max_features"`
	Weights            WeightsConfig `mapstructure:"weights"`
	AvailabilityPolicy string        `mapstructure:"availability_policy"` // open_spot | proportional
	CandidateSource    string        `mapstructure:"candidate_source"`    // postgres | elasticsearch
	CandidateLimit     int           `mapstructure:"candidate_limit"`
	CacheTTL           int           `mapstructure:"cache_ttl"` // seconds
	Parallelism        int           `mapstructure:"parallelism"`
	ParallelThreshold  int           `mapstructure:"parallel_threshold"`
}

type WeightsConfig struct {
	Skill        float64 `mapstructure:"skill"`
	Experience   float64 `mapstructure:"experience"`
	Interest     float64 `mapstructure:"interest"`
	Availability float64 `mapstructure:"availability"`
}

func (w WeightsConfig) IsZero() bool {
	return w == WeightsConfig{}
}

type EmbeddingConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type HTTPConfig struct {
	Address         string   `mapstructure:"address"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
