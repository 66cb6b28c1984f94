package config

import (
	"os"
	"testing"
)

// unset clears keys for the duration of the test and restores them afterwards.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unset(t, "SERVER_PORT", "PORT", "DB_DRIVER", "DATABASE_URL", "DB_PORT", "DB_USE_SSL",
		"STORAGE_BACKEND", "STORAGE_PATH", "MQ_BACKEND", "MQ_USER_CREATED_CHANNEL",
		"LOG_LEVEL", "LOG_FORMAT")

	cfg := LoadConfig()

	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want 3000", cfg.ServerPort)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Database.UseSSL {
		t.Error("Database.UseSSL should default to false")
	}
	if cfg.Storage.Backend != StorageLocal {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageLocal)
	}
	if cfg.Storage.Path != "uploads" {
		t.Errorf("Storage.Path = %q, want uploads", cfg.Storage.Path)
	}
	if cfg.MQ.Backend != "" {
		t.Errorf("MQ.Backend = %q, want empty", cfg.MQ.Backend)
	}
	if cfg.MQ.UserCreatedChannel != "users.created" {
		t.Errorf("MQ.UserCreatedChannel = %q, want users.created", cfg.MQ.UserCreatedChannel)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/roster-test.db")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("MINIO_BUCKET", "photos")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("RABBITMQ_PREFETCH", "3")

	cfg := LoadConfig()

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Database.Path != "/tmp/roster-test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/x" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if !cfg.Database.UseSSL {
		t.Error("Database.UseSSL should be true")
	}
	if cfg.Storage.Backend != StorageMinio || cfg.Storage.Minio.Bucket != "photos" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.MQ.Backend != MQRabbitMQ || cfg.MQ.RabbitMQ.PrefetchCount != 3 {
		t.Errorf("MQ = %+v", cfg.MQ)
	}
}

func TestLoadConfigFallsBackToPORT(t *testing.T) {
	unset(t, "SERVER_PORT")
	t.Setenv("PORT", "4321")

	if got := LoadConfig().ServerPort; got != 4321 {
		t.Fatalf("ServerPort = %d, want 4321", got)
	}
}

func TestGetEnvIntMalformedUsesDefault(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	if got := getEnvInt("DB_PORT", 5432); got != 5432 {
		t.Fatalf("getEnvInt = %d, want 5432", got)
	}
}

func TestGetEnvBoolMalformedUsesDefault(t *testing.T) {
	t.Setenv("DB_USE_SSL", "sometimes")

	if got := getEnvBool("DB_USE_SSL", true); !got {
		t.Fatal("getEnvBool should fall back to default")
	}
}
