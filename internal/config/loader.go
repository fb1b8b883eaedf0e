package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentpulse.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Host, "AGENTPULSE_HOST")
	setInts(&cfg.Server.Ports, "AGENTPULSE_PORTS")
	setString(&cfg.Server.CORSOrigin, "AGENTPULSE_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "AGENTPULSE_NATS_SUBJECT")
	setString(&cfg.MCP.Addr, "AGENTPULSE_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "AGENTPULSE_MCP_API_KEY")
	setString(&cfg.Logging.Level, "AGENTPULSE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTPULSE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTPULSE_LOG_ASYNC")
}

func validate(cfg *Config) error {
	if len(cfg.Server.Ports) == 0 {
		return errors.New("server.ports must list at least one candidate port")
	}
	for _, p := range cfg.Server.Ports {
		if p < 0 || p > 65535 {
			return fmt.Errorf("server.ports: %d out of range", p)
		}
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// setInts parses a comma-separated list of ports.
func setInts(dst *[]int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return
		}
		out = append(out, n)
	}
	*dst = out
}
