package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `environment: test
policy:
  max_signals_per_day: 20
  cooldown_level_1: 120m
stream:
  enabled: false
kafka:
  enabled: false
clickhouse:
  enabled: false
redis:
  enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Policy.MaxSignalsPerDay != 20 {
		t.Fatalf("expected quota 20, got %d", cfg.Policy.MaxSignalsPerDay)
	}
	if cfg.Policy.CooldownLevelOne != 120*time.Minute {
		t.Fatalf("expected 120m cooldown, got %v", cfg.Policy.CooldownLevelOne)
	}
}

func TestValidateMissingEnvironment(t *testing.T) {
	if _, err := Load(writeConfig(t, "policy:\n  max_signals_per_day: 5\n")); err == nil {
		t.Fatalf("missing environment must fail validation")
	}
}

func TestValidateStreamRequiresAPIKey(t *testing.T) {
	body := `environment: test
stream:
  enabled: true
  symbols: ["BTCUSDT"]
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("enabled stream without api_key must fail validation")
	}
}

func TestValidateKafkaRequiresBrokers(t *testing.T) {
	body := `environment: test
kafka:
  enabled: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("enabled kafka without brokers must fail validation")
	}
}

func TestValidateNegativeQuota(t *testing.T) {
	body := `environment: test
policy:
  max_signals_per_day: -1
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("negative quota must fail validation")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("expected broker override, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Fatalf("expected redis addr override, got %q", cfg.Redis.Addr)
	}
}
