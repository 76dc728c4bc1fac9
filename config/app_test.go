package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "sqlite3", cfg.DatabaseDriver)
	require.Equal(t, "log", cfg.Broker)
	require.Equal(t, 30*time.Minute, cfg.FXCacheTTL)
	require.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	require.Equal(t, time.Second, cfg.RelayInterval)
	require.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/bikes")
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("FX_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "pgx", cfg.DatabaseDriver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 5*time.Minute, cfg.FXCacheTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_ENV=staging\nNOTIFY_TOPIC=bikes.promoted\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, "bikes.promoted", cfg.NotifyTopic)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":         {"DATABASE_DRIVER": "mysql"},
		"broker":         {"BROKER": "nats"},
		"kafka no hosts": {"BROKER": "kafka"},
		"prod secret":    {"APP_ENV": "prod"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
