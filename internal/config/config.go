// Package config loads bidbuddy settings from the XDG config file with
// environment overrides.
package config

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Ingest  IngestConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type IngestConfig struct {
	// PollInterval is a Go duration string for the valuation worker's
	// queue polling cadence.
	PollInterval string
}

type APIConfig struct {
	// Token guards the management routes. Empty leaves them open,
	// which is the expected setup for a local single-user install.
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Ingest: IngestConfig{
			PollInterval: "500ms",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/bidbuddy/config.json, then applies BIDBUDDY_*
// environment overrides. The API token is env-only and never touches
// the config file.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
