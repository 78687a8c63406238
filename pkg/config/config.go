package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/transport"
)

// Transport selection values.
const (
	TransportHTTP  = "http"
	TransportNATS  = "nats"
	TransportLocal = "local"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServiceConfig holds the per-service listen settings.
type ServiceConfig struct {
	// Port is the HTTP submit port (http transport only).
	Port int `yaml:"port"`

	// MetricsAddr enables a /metrics listener when non-empty, e.g. ":9000".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Config is the shared service configuration, loaded from YAML with
// defaults matching the original demo topology.
type Config struct {
	// Transport selects the inter-agent transport: http, nats or local.
	Transport string `yaml:"transport"`

	// Interval is the client's workflow trigger period.
	Interval Duration `yaml:"interval"`

	Assessor ServiceConfig `yaml:"assessor"`
	Payments ServiceConfig `yaml:"payments"`
	Client   ServiceConfig `yaml:"client"`

	NATS transport.NATSConfig `yaml:"nats"`

	// Tracing enables span output on stdout.
	Tracing bool `yaml:"tracing"`
}

// Default returns the demo configuration: HTTP transport on the original
// ports, a 10s trigger interval.
func Default() Config {
	return Config{
		Transport: TransportHTTP,
		Interval:  Duration(10 * time.Second),
		Assessor:  ServiceConfig{Port: contracts.DefaultAssessorPort},
		Payments:  ServiceConfig{Port: contracts.DefaultPaymentsPort},
		Client:    ServiceConfig{Port: contracts.DefaultClientPort},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the services cannot run with.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportNATS, TransportLocal:
	default:
		return fmt.Errorf("unknown transport %q (want http, nats or local)", c.Transport)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval.Std())
	}
	if c.Transport == TransportHTTP {
		for name, svc := range map[string]ServiceConfig{
			"assessor": c.Assessor,
			"payments": c.Payments,
			"client":   c.Client,
		} {
			if svc.Port <= 0 {
				return fmt.Errorf("%s port must be positive, got %d", name, svc.Port)
			}
		}
	}
	return nil
}

// Secrets holds the required environment contract. AGENT_SEED feeds agent
// identity derivation; without it no service may start.
type Secrets struct {
	AgentSeed string `env:"AGENT_SEED,required,notEmpty"`
}

// LoadSecrets parses the environment. A missing AGENT_SEED is a fatal
// configuration error surfaced before any service launches.
func LoadSecrets() (Secrets, error) {
	s, err := env.ParseAs[Secrets]()
	if err != nil {
		return Secrets{}, fmt.Errorf("environment configuration: %w", err)
	}
	return s, nil
}
