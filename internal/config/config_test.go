package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Store:  StoreConfig{Driver: DriverSQLite},
		Auth:   AuthConfig{DefaultPassword: "qwer"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_StoreDrivers(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		mongoURI string
		valid    bool
	}{
		{"sqlite", DriverSQLite, "", true},
		{"badger", DriverBadger, "", true},
		{"mongo with uri", DriverMongo, "mongodb://localhost:27017", true},
		{"mongo without uri", DriverMongo, "", false},
		{"unknown", "postgres", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Store.Driver = tt.driver
			cfg.Store.MongoURI = tt.mongoURI

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_TokenKeyLength(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.TokenKey = make([]byte, 16)
	assert.Error(t, cfg.Validate())

	cfg.Auth.TokenKey = make([]byte, 32)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.TokenTTL = -time.Minute
	assert.Error(t, cfg.Validate())
}

func TestValidate_SubSecondTTL(t *testing.T) {
	cfg := validConfig()

	cfg.Auth.TokenTTL = 500 * time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg.Auth.TokenTTL = time.Second
	assert.NoError(t, cfg.Validate())

	cfg.Auth.TokenTTL = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenTTL)
	assert.Equal(t, "qwer", cfg.Auth.DefaultPassword)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.GraphQL.Playground)
	assert.Equal(t, dataDir, cfg.Data.BasePath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("SERVER_PORT", "5000")
	t.Setenv("STORE_DRIVER", "badger")

	cfg, err := Load([]string{
		"-env-file", filepath.Join(dataDir, "missing.env"),
		"-port", "6000",
		"-token-ttl", "1h",
	})
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Server.Port)
	assert.Equal(t, DriverBadger, cfg.Store.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_TokenKeyFromEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("AUTH_TOKEN_KEY", strings.Repeat("ab", 32))

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.TokenKey, 32)
}

func TestLoad_InvalidTokenKey(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("AUTH_TOKEN_KEY", "not-hex")

	_, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	assert.Error(t, err)
}

func TestLoad_ProductionDisablesPlayground(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env"), "-env", "production"})
	require.NoError(t, err)
	assert.False(t, cfg.GraphQL.Playground)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nCATALOG_TEST_A=one\nCATALOG_TEST_B=\"two words\"\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CATALOG_TEST_A", "")
	t.Setenv("CATALOG_TEST_B", "preset")

	require.NoError(t, loadEnvFile(path))

	assert.Equal(t, "one", os.Getenv("CATALOG_TEST_A"))
	assert.Equal(t, "preset", os.Getenv("CATALOG_TEST_B"))
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOEQUALS\n"), 0o600))

	assert.Error(t, loadEnvFile(path))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/catalog", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "catalog"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}
