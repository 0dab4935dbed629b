package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if c.Forecast.Window != 20 || c.Forecast.Horizon != 30 || c.Forecast.MaxEpochs != 100 {
		t.Fatalf("unexpected forecast defaults: %+v", c.Forecast)
	}
	if c.Forecast.Patience != 20 || c.Forecast.BatchSize != 64 || c.Forecast.LearningRate != 0.0005 {
		t.Fatalf("unexpected training defaults: %+v", c.Forecast)
	}
	if c.Progress.PollInterval != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval %v", c.Progress.PollInterval)
	}
	if len(c.News.Keywords) != 5 || c.News.Keywords[0] != "삼성전자" {
		t.Fatalf("unexpected keywords %v", c.News.Keywords)
	}
	if len(c.Server.CORSOrigins) != 1 || c.Server.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", c.Server.CORSOrigins)
	}
	if !c.Auth.Enabled || c.Auth.BcryptCost != 10 || c.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected auth defaults: %+v", c.Auth)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte("forecast:\n  max_epochs: 10\n  checkpoint:\n    backend: file\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Forecast.MaxEpochs != 10 || c.Forecast.Checkpoint.Backend != "file" {
		t.Fatalf("yaml values not applied: %+v", c.Forecast)
	}
	if c.Forecast.Patience != 20 {
		t.Fatalf("defaults lost: patience=%d", c.Forecast.Patience)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"test ratio":      "forecast:\n  test_ratio: 1.5\n",
		"redis progress":  "progress:\n  backend: redis\n",
		"checkpoint kind": "forecast:\n  checkpoint:\n    backend: s3\n",
		"kafka brokers":   "kafka:\n  enabled: true\n  brokers: []\n",
		"news creds":      "news:\n  enabled: true\n",
		"bcrypt cost":     "auth:\n  bcrypt_cost: 2\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("news:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("NAVER_CLIENT_ID", "id")
	t.Setenv("NAVER_CLIENT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PORT", "8088")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.News.ClientID != "id" || !c.News.Enabled {
		t.Fatalf("env credentials not applied: %+v", c.News)
	}
	if !c.Kafka.Enabled || strings.Join(c.Kafka.Brokers, ",") != "k1:9092,k2:9092" {
		t.Fatalf("env brokers not applied: %v", c.Kafka.Brokers)
	}
	if c.Server.Port != 8088 {
		t.Fatalf("env port not applied: %d", c.Server.Port)
	}
	if len(c.Server.CORSOrigins) != 2 || c.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("env cors origins not applied: %v", c.Server.CORSOrigins)
	}
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if c.Server.Port != 5000 {
		t.Fatalf("unexpected port %d", c.Server.Port)
	}
}
