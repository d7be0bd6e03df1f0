package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/slack"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CALSLACK_"

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

type Config struct {
	Server          Server          `koanf:"server"`
	Metrics         Metrics         `koanf:"metrics"`
	Google          Google          `koanf:"google"`
	Slack           Slack           `koanf:"slack"`
	Instrumentation Instrumentation `koanf:"instrumentation"`
}

type Server struct {
	Transport string `koanf:"transport"`
	HTTPAddr  string `koanf:"httpaddr"`
	ReadOnly  bool   `koanf:"readonly"`
	Debug     bool   `koanf:"debug"`
	LogFormat string `koanf:"logformat"`
}

type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type Google struct {
	ClientID       string `koanf:"clientid"`
	ClientSecret   string `koanf:"clientsecret"`
	TokenDir       string `koanf:"tokendir"`
	DefaultAccount string `koanf:"defaultaccount"`
}

type Slack struct {
	Token          string        `koanf:"token"`
	APIURL         string        `koanf:"apiurl"`
	MaxRetries     int           `koanf:"maxretries"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
	MaxBackoff     time.Duration `koanf:"maxbackoff"`
}

type Instrumentation struct {
	Enabled        bool    `koanf:"enabled"`
	Exporter       string  `koanf:"exporter"`
	Tracing        string  `koanf:"tracing"`
	OTLPEndpoint   string  `koanf:"otlpendpoint"`
	OTLPInsecure   bool    `koanf:"otlpinsecure"`
	SamplingRate   float64 `koanf:"samplingrate"`
	DetailedLabels bool    `koanf:"detailedlabels"`
	Audit          bool    `koanf:"audit"`
}

// Default returns the built-in configuration.
func Default() Config {
	instr := instrumentation.DefaultConfig()
	return Config{
		Server: Server{
			Transport: TransportStdio,
			HTTPAddr:  ":8080",
			LogFormat: "text",
		},
		Metrics: Metrics{
			Enabled: true,
			Addr:    ":9090",
		},
		Google: Google{
			DefaultAccount: "default",
		},
		Slack: Slack{
			MaxRetries:     slack.DefaultMaxRetries,
			InitialBackoff: slack.DefaultInitialBackoff,
			MaxBackoff:     slack.DefaultMaxBackoff,
		},
		Instrumentation: Instrumentation{
			Enabled:      instr.Enabled,
			Exporter:     instr.MetricsExporter,
			Tracing:      instr.TracingExporter,
			SamplingRate: instr.TraceSamplingRate,
			Audit:        instr.Audit,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path or a missing file is not an error.
func Load(path string) (Config, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("error loading config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			slog.Debug("config file not found, using defaults and environment", "path", path)
		} else {
			slog.Debug("loaded configuration from file", "path", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("error loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)",
			c.Server.Transport, TransportStdio, TransportStreamableHTTP)
	}
	if c.Server.Transport == TransportStreamableHTTP && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.httpaddr is required for the %s transport", TransportStreamableHTTP)
	}
	switch c.Server.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (expected text or json)", c.Server.LogFormat)
	}
	if c.Slack.MaxRetries < 1 {
		return fmt.Errorf("slack.maxretries must be at least 1, got %d", c.Slack.MaxRetries)
	}
	if c.Slack.InitialBackoff <= 0 || c.Slack.MaxBackoff < c.Slack.InitialBackoff {
		return fmt.Errorf("slack backoff must satisfy 0 < initialbackoff <= maxbackoff")
	}
	ic := c.InstrumentationConfig("")
	if err := ic.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}
	return nil
}

// LogLevel is "debug" when server.debug is set and "info" otherwise.
func (c Config) LogLevel() string {
	if c.Server.Debug {
		return "debug"
	}
	return "info"
}

// InstrumentationConfig converts the instrumentation section.
func (c Config) InstrumentationConfig(version string) instrumentation.Config {
	ic := instrumentation.DefaultConfig()
	if version != "" {
		ic.ServiceVersion = version
	}
	if host, err := os.Hostname(); err == nil {
		ic.ServiceInstanceID = host
	}
	ic.Enabled = c.Instrumentation.Enabled
	ic.MetricsExporter = c.Instrumentation.Exporter
	ic.TracingExporter = c.Instrumentation.Tracing
	ic.OTLPEndpoint = c.Instrumentation.OTLPEndpoint
	ic.OTLPInsecure = c.Instrumentation.OTLPInsecure
	ic.TraceSamplingRate = c.Instrumentation.SamplingRate
	ic.DetailedLabels = c.Instrumentation.DetailedLabels
	ic.Audit = c.Instrumentation.Audit
	return ic
}

// SlackConfig converts the slack section. The token is left to the caller
// because HTTP requests bring their own.
func (c Config) SlackConfig() slack.Config {
	return slack.Config{
		APIURL:         c.Slack.APIURL,
		MaxRetries:     c.Slack.MaxRetries,
		InitialBackoff: c.Slack.InitialBackoff,
		MaxBackoff:     c.Slack.MaxBackoff,
	}
}
