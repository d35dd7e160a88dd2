package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing addrs")
	}
}

func TestValidate_SQLiteNeedsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: DriverSQLite}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing sqlite_path")
	}
	cfg.Database.SQLitePath = "/tmp/meterd.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mongo"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "database.driver") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestValidate_Pricing(t *testing.T) {
	tests := []struct {
		name    string
		pricing PricingConfig
		wantErr bool
	}{
		{"empty", PricingConfig{}, false},
		{"valid", PricingConfig{PerToken: "0.0000002", PerCall: "0.01"}, false},
		{"not decimal", PricingConfig{PerMinute: "cheap"}, true},
		{"negative", PricingConfig{PerSecond: "-0.1"}, true},
		{"negative zero", PricingConfig{PerCall: "-0"}, false},
		{"exponent", PricingConfig{PerToken: "2e-7"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Pricing = tc.pricing
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_PricingMatchesCalculator(t *testing.T) {
	for _, raw := range []string{"0.5", "1e-3", "-0", "-0.1", "cheap", " 1", "1_000"} {
		cfg := validConfig()
		cfg.Pricing = PricingConfig{PerMinute: raw}
		_, parseErr := pricing.Parse("", "", raw, "")
		if err := cfg.Validate(); (err != nil) != (parseErr != nil) {
			t.Errorf("%q: Validate() err = %v, pricing.Parse err = %v", raw, err, parseErr)
		}
	}
}

func TestValidate_LLMNeedsModel(t *testing.T) {
	cfg := validConfig()
	cfg.LLM = LLMConfig{APIKey: "sk-test"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for llm without model")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.OpTimeout() != 2*time.Second {
		t.Errorf("expected OpTimeout=2s, got %s", cfg.Database.OpTimeout())
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected LLM.Provider=openai, got %q", cfg.LLM.Provider)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 5},
		Database: DatabaseConfig{Driver: DriverSQLite, OpTimeoutMs: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected Driver=sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.OpTimeoutMs != 500 {
		t.Errorf("expected OpTimeoutMs=500, got %d", cfg.Database.OpTimeoutMs)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("METERD_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
http:
  port: ${METERD_TEST_PORT}
database:
  driver: sqlite
  sqlite_path: ${METERD_TEST_UNSET:-/tmp/meterd.db}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.SQLitePath != "/tmp/meterd.db" {
		t.Errorf("SQLitePath = %q", cfg.Database.SQLitePath)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := "http:\n  port: 8081\ndatabase:\n  addrs: [\"localhost:6379\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 8081 || cfg.Database.Driver != DriverRedis {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port in config/local.yaml")
	}
}
