package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Clean:   CleanConfig{MaxBodyBytes: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, CleanLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Clean.MaxConcurrent != 4 {
		t.Errorf("Clean.MaxConcurrent = %d, want %d", cfg.Clean.MaxConcurrent, 4)
	}
	if cfg.Clean.MaxBodyBytes != 32<<20 {
		t.Errorf("Clean.MaxBodyBytes = %d, want %d", cfg.Clean.MaxBodyBytes, 32<<20)
	}
	if cfg.Clean.InferenceSample != 100 {
		t.Errorf("Clean.InferenceSample = %d, want %d", cfg.Clean.InferenceSample, 100)
	}
	if cfg.Clean.ProfilePath != "" {
		t.Errorf("Clean.ProfilePath = %q, want empty", cfg.Clean.ProfilePath)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
	if cfg.Security.RequireAPIKey {
		t.Error("Security.RequireAPIKey should default to false")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLEAN_MAX_CONCURRENT", "10")
	t.Setenv("CLEAN_PROFILE_PATH", "/etc/cleanse/profile.yaml")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Clean.MaxConcurrent != 10 {
		t.Errorf("Clean.MaxConcurrent = %d, want %d", cfg.Clean.MaxConcurrent, 10)
	}
	if cfg.Clean.ProfilePath != "/etc/cleanse/profile.yaml" {
		t.Errorf("Clean.ProfilePath = %q", cfg.Clean.ProfilePath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("CLEAN_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Clean.MaxWaitTime != 90*time.Second {
		t.Errorf("Clean.MaxWaitTime = %v, want %v", cfg.Clean.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CLEAN_WORKERS", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric CLEAN_WORKERS")
	}
	if !strings.Contains(err.Error(), "CLEAN_WORKERS") {
		t.Errorf("error should mention CLEAN_WORKERS: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, expected) {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, expected)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var s struct {
		Token string `env:"CLEANSE_TEST_REQUIRED_TOKEN" required:"true"`
	}
	err := loadStruct(reflect.ValueOf(&s).Elem())
	if err == nil || !strings.Contains(err.Error(), "CLEANSE_TEST_REQUIRED_TOKEN") {
		t.Fatalf("loadStruct() error = %v, want missing required variable", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero body limit", func(c *Config) { c.Clean.MaxBodyBytes = 0 }, "CLEAN_MAX_BODY_BYTES"},
		{"negative workers", func(c *Config) { c.Clean.Workers = -1 }, "CLEAN_WORKERS"},
		{"rate limit", func(c *Config) { c.Rate.CleanLimit = 0 }, "RATE_LIMIT_CLEAN"},
		{"rate limit disabled", func(c *Config) { c.Rate.Enabled = false; c.Rate.CleanLimit = 0 }, ""},
		{"api key required", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsAllFailures(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key", "another-secret"}

	str := cfg.String()
	if strings.Contains(str, "secret") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "[2 MASKED]") {
		t.Errorf("String() should report the key count: %s", str)
	}
}
