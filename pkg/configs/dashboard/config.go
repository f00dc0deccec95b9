// Package dashboard is the portal daemon's configuration: a yaml file
// with environment variable overrides, so the same image runs in
// compose, swarm and bare deployments.
package dashboard

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

// six days, the cadence the network agreed on for resubmissions.
const DefaultFetchInterval = 518400 * time.Second

const DefaultPort = 8050

// Config configures the portal daemon.
type Config struct {
	// Port the dashboard listens on.
	Port int `yaml:"port"`

	// SchemaPath is the semantic data schema file (.json).
	SchemaPath string `yaml:"schemaPath"`

	// AssetsDir holds the dashboard's static files.
	AssetsDir string `yaml:"assetsDir"`

	// FetchInterval is the pause between fetch cycles.
	FetchInterval Duration `yaml:"fetchInterval"`

	// SecretsDir is where Docker mounts the vantage6_* secrets.
	SecretsDir string `yaml:"secretsDir"`

	// NetworkConfigPath is a network configuration JSON file, for
	// running outside Docker. It wins over secrets when both are present.
	NetworkConfigPath string `yaml:"networkConfigPath"`

	// MockDataDir holds canned results, served when neither secrets
	// nor a network configuration are provided.
	MockDataDir string `yaml:"mockDataDir"`

	// HistoryDBURI is a PostgreSQL connection string. Empty means the
	// history only lives in memory.
	HistoryDBURI string `yaml:"historyDBURI"`

	// LogLevel is one of debug, info, warn, error, off.
	LogLevel string `yaml:"loglevel"`

	// Subject is the kind of record the collaboration counts,
	// e.g. "AYA". It only appears in chart texts.
	Subject string `yaml:"subject"`

	Hooks Hooks `yaml:"hooks,omitempty"`
}

// Hooks are webhooks around lifecycle events.
type Hooks struct {
	Fetch WebHook `yaml:"fetch,omitempty"`
}

// WebHook is a pair of URL lists called before and after an event.
type WebHook struct {
	Before []*url.URL
	After  []*url.URL
}

func (wh *WebHook) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Before []string `yaml:"before"`
		After  []string `yaml:"after"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	wh.Before = make([]*url.URL, len(raw.Before))
	for i, u := range raw.Before {
		parsed, err := url.Parse(u)
		if err != nil {
			return err
		}
		wh.Before[i] = parsed
	}

	wh.After = make([]*url.URL, len(raw.After))
	for i, u := range raw.After {
		parsed, err := url.Parse(u)
		if err != nil {
			return err
		}
		wh.After[i] = parsed
	}
	return nil
}

// Duration accepts "144h"-style strings and bare second counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var seconds int64
	if err := node.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	var expr string
	if err := node.Decode(&expr); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(expr)
	if err != nil {
		return fmt.Errorf("not a duration: %s: %w", expr, err)
	}
	*d = Duration(parsed)
	return nil
}

// environment overrides, mostly for Docker deployments.
type overrides struct {
	SchemaPath    string        `envconfig:"JSON_FILE_PATH"`
	Port          int           `envconfig:"PORTAL_PORT"`
	FetchInterval time.Duration `envconfig:"PORTAL_FETCH_INTERVAL"`
	SecretsDir    string        `envconfig:"PORTAL_SECRETS_DIR"`
	HistoryDBURI  string        `envconfig:"PORTAL_HISTORY_DB_URI"`
	MockDataDir   string        `envconfig:"PORTAL_MOCK_DATA_DIR"`
	LogLevel      string        `envconfig:"PORTAL_LOGLEVEL"`
}

// Default is the Config before any file or environment is read.
func Default() Config {
	return Config{
		Port:          DefaultPort,
		FetchInterval: Duration(DefaultFetchInterval),
		SecretsDir:    vantage6.DefaultSecretsDir,
		LogLevel:      "info",
		Subject:       "AYA",
	}
}

// Load builds the Config: defaults, then the yaml file (when path is
// not empty), then environment variables. A .env file in the working
// directory is honored.
func Load(path string) (Config, error) {
	godotenv.Load()

	cfg := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse configuration %s: %w", path, err)
		}
	}

	ov := overrides{}
	if err := envconfig.Process("", &ov); err != nil {
		return Config{}, err
	}
	if ov.SchemaPath != "" {
		cfg.SchemaPath = ov.SchemaPath
	}
	if ov.Port != 0 {
		cfg.Port = ov.Port
	}
	if ov.FetchInterval != 0 {
		cfg.FetchInterval = Duration(ov.FetchInterval)
	}
	if ov.SecretsDir != "" {
		cfg.SecretsDir = ov.SecretsDir
	}
	if ov.HistoryDBURI != "" {
		cfg.HistoryDBURI = ov.HistoryDBURI
	}
	if ov.MockDataDir != "" {
		cfg.MockDataDir = ov.MockDataDir
	}
	if ov.LogLevel != "" {
		cfg.LogLevel = ov.LogLevel
	}

	return cfg, nil
}

// Verify checks the Config is runnable.
func (c Config) Verify() error {
	if c.SchemaPath == "" {
		return fmt.Errorf("schemaPath (or JSON_FILE_PATH) is required")
	}
	if c.Port <= 0 || 65535 < c.Port {
		return fmt.Errorf("port is out of range: %d", c.Port)
	}
	if time.Duration(c.FetchInterval) <= 0 {
		return fmt.Errorf("fetchInterval should be positive: %v", time.Duration(c.FetchInterval))
	}
	return nil
}
