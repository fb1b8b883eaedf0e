// Package config provides hierarchical configuration loading for
// AgentPulse. Precedence: defaults < YAML file < environment variables.
package config

// Config holds all runtime configuration for the AgentPulse sidecar.
type Config struct {
	Server  Server  `yaml:"server"`
	NATS    NATS    `yaml:"nats"`
	MCP     MCP     `yaml:"mcp"`
	Logging Logging `yaml:"logging"`
}

// Server holds dashboard endpoint configuration.
type Server struct {
	Host       string `yaml:"host"`        // bind host
	Ports      []int  `yaml:"ports"`       // candidate ports, probed in order
	CORSOrigin string `yaml:"cors_origin"` // allowed origin for observers
}

// NATS holds the optional snapshot mirror configuration. An empty URL
// disables the mirror.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MCP holds the optional MCP status-tool server configuration. An empty
// address disables it.
type MCP struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: Server{
			Host:       "0.0.0.0",
			Ports:      []int{3000, 3001, 3002, 3003, 3004},
			CORSOrigin: "*",
		},
		NATS: NATS{
			Subject: "agentpulse.state",
		},
		Logging: Logging{
			Level:   "info",
			Service: "agentpulse",
		},
	}
}
