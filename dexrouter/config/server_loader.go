package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "DEXROUTER"

// LoadServerConfig loads the server config from the given path, or from the
// environment when configPath is nil
func LoadServerConfig(configPath *string) (*ServerConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		// if no file expect envs
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}
	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("rate_per_minute", 600)
	v.SetDefault("max_concurrent_requests", 100)
	v.SetDefault("service_name", "dexrouter")
	v.SetDefault("environment", "LOCAL")
}

func loadEnv(v *viper.Viper) (*ServerConfig, error) {
	// .env is optional, the variables may come from docker or systemd
	_ = godotenv.Load()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config ServerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyServerConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "genesis", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "use_otlp_traces", "otlp_traces_url",
		"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
		"enable_logs", "use_otlp_logs", "otlp_logs_url",
		"insecure_otlp", "otlp_client_cert_file", "otlp_client_key_file", "otlp_ca_cert_file",
		"development_mode",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*ServerConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ServerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyServerConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyServerConfig(config *ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if config.Genesis == "" {
		return fmt.Errorf("genesis is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if config.RatePerMinute < 0 || config.MaxConcurrentRequests < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if config.UseOTLPTraces && config.OTLPTracesURL == "" {
		return fmt.Errorf("otlp_traces_url is required when use_otlp_traces is set")
	}
	if config.UseOTLPMetrics && config.OTLPMetricsURL == "" {
		return fmt.Errorf("otlp_metrics_url is required when use_otlp_metrics is set")
	}
	if config.UseOTLPLogs && config.OTLPLogsURL == "" {
		return fmt.Errorf("otlp_logs_url is required when use_otlp_logs is set")
	}
	if (config.OTLPClientCertFile == "") != (config.OTLPClientKeyFile == "") {
		return fmt.Errorf("otlp_client_cert_file and otlp_client_key_file must be set together")
	}

	return nil
}
