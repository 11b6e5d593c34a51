package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("REMINDER_COUNTRY_CODE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "55", cfg.ReminderCountryCode)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 10*time.Second, cfg.TransportTimeout)
	assert.Equal(t, "@every 1m", cfg.TimeoutScanSpec)
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
}

func TestLoadSqliteDefaultsToLocalFile(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DB_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "leadflow.db", cfg.DatabaseURL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestConnectDBSqliteMigrates(t *testing.T) {
	cfg := &Config{Env: "test", StoreDriver: "sqlite", DatabaseURL: "file::memory:"}

	db, err := ConnectDB(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable("lead_stage_history"))
	assert.True(t, db.Migrator().HasTable("sent_whatsapp_messages"))
}

func TestConnectDBRejectsMemoryDriver(t *testing.T) {
	_, err := ConnectDB(&Config{StoreDriver: "memory"})
	assert.Error(t, err)
}
