package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	TelemetryCfg *TelemetryConfig
	MqttCfg      *MqttConfig
	DatabaseURL  string
	MetricsAddr  string
	Watchlist    string
	LogLevel     string
}

// TelemetryConfig configures the push-server session. AuthToken is the
// credential presented on the connection handshake.
type TelemetryConfig struct {
	ServerURL            string        `env:"TELEMETRY_SERVER_URL" envDefault:"wss://push.iot.internal/socket"`
	AuthToken            string        `env:"TELEMETRY_AUTH_TOKEN"`
	ReconnectDelay       time.Duration `env:"TELEMETRY_RECONNECT_DELAY" envDefault:"5s"`
	MaxReconnectAttempts uint64        `env:"TELEMETRY_MAX_RECONNECT_ATTEMPTS" envDefault:"10"`
	PingIntervalSecs     int           `env:"TELEMETRY_PING_INTERVAL_SECS" envDefault:"15"`
	InsecureSkipVerify   bool          `env:"TELEMETRY_INSECURE_SKIP_VERIFY"`
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// TelemetryFromEnv returns a TelemetryConfig populated from the environment.
// CLI flags overlay these values in cmd.
func TelemetryFromEnv() (*TelemetryConfig, error) {
	cfg := &TelemetryConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
