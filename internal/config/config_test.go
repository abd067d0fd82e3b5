package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "TRACKLINE_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "TRACKLINE_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "TRACKLINE_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TRACKLINE_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "TRACKLINE_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "TRACKLINE_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "returns fallback for empty string", key: "TRACKLINE_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "TRACKLINE_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "TRACKLINE_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TRACKLINE_TEST_FLOAT_UNSET", setVal: nil, fallback: 2.5, want: 2.5},
		{name: "parses valid float", key: "TRACKLINE_TEST_FLOAT_VALID", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "parses integer form", key: "TRACKLINE_TEST_FLOAT_INT", setVal: strPtr("25"), fallback: 0, want: 25},
		{name: "errors on non-numeric", key: "TRACKLINE_TEST_FLOAT_NAN", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TRACKLINE_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "TRACKLINE_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses composite", key: "TRACKLINE_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "errors on invalid", key: "TRACKLINE_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "TRACKLINE_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("TRACKLINE_JWT_SECRET", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TRACKLINE_JWT_SECRET")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		{name: "DB_PORT not a number", envKey: "TRACKLINE_DB_PORT", envVal: "abc", errMsg: "TRACKLINE_DB_PORT"},
		{name: "DB_PORT zero", envKey: "TRACKLINE_DB_PORT", envVal: "0", errMsg: "TRACKLINE_DB_PORT"},
		{name: "DB_PORT too high", envKey: "TRACKLINE_DB_PORT", envVal: "65536", errMsg: "TRACKLINE_DB_PORT"},
		{name: "DB_MAX_CONNS zero", envKey: "TRACKLINE_DB_MAX_CONNS", envVal: "0", errMsg: "TRACKLINE_DB_MAX_CONNS"},
		{name: "DB_MAX_CONNS not a number", envKey: "TRACKLINE_DB_MAX_CONNS", envVal: "many", errMsg: "TRACKLINE_DB_MAX_CONNS"},
		{name: "SERVER_READ_TIMEOUT invalid", envKey: "TRACKLINE_SERVER_READ_TIMEOUT", envVal: "notduration", errMsg: "TRACKLINE_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT zero", envKey: "TRACKLINE_SERVER_WRITE_TIMEOUT", envVal: "0s", errMsg: "TRACKLINE_SERVER_WRITE_TIMEOUT"},
		{name: "REDIS_DB not a number", envKey: "TRACKLINE_REDIS_DB", envVal: "abc", errMsg: "TRACKLINE_REDIS_DB"},
		{name: "RATE_LIMIT_RPS zero", envKey: "TRACKLINE_RATE_LIMIT_RPS", envVal: "0", errMsg: "TRACKLINE_RATE_LIMIT_RPS"},
		{name: "RATE_LIMIT_BURST zero", envKey: "TRACKLINE_RATE_LIMIT_BURST", envVal: "0", errMsg: "TRACKLINE_RATE_LIMIT_BURST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Always set JWT secret so failures are from the var under test.
			t.Setenv("TRACKLINE_JWT_SECRET", "test-secret-for-error-cases-32ch!")
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	// Only the required JWT secret is set; everything else uses defaults.
	t.Setenv("TRACKLINE_JWT_SECRET", "my-dev-secret-at-least-32-chars!!")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "trackline", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "trackline_dev", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxConns)

	// Redis defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.InDelta(t, 25.0, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, 50, cfg.Server.RateBurst)

	// Timeline render settings stay zero; the renderer applies its own
	// defaults for zero fields.
	assert.Zero(t, cfg.Timeline.DayWidthPx)
	assert.Zero(t, cfg.Timeline.MaxWindowDays)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		// Database
		"TRACKLINE_DB_HOST":      "db.prod.internal",
		"TRACKLINE_DB_PORT":      "5433",
		"TRACKLINE_DB_USER":      "prod_user",
		"TRACKLINE_DB_PASSWORD":  "s3cret!",
		"TRACKLINE_DB_NAME":      "trackline_prod",
		"TRACKLINE_DB_SSLMODE":   "require",
		"TRACKLINE_DB_MAX_CONNS": "50",
		// Redis
		"TRACKLINE_REDIS_ADDR":     "redis.prod:6380",
		"TRACKLINE_REDIS_PASSWORD": "redis-pass",
		"TRACKLINE_REDIS_DB":       "3",
		// JWT
		"TRACKLINE_JWT_SECRET": "prod-jwt-secret-256-bits-long!!!",
		// Server
		"TRACKLINE_SERVER_ADDR":          ":9090",
		"TRACKLINE_SERVER_READ_TIMEOUT":  "5s",
		"TRACKLINE_SERVER_WRITE_TIMEOUT": "15s",
		"TRACKLINE_RATE_LIMIT_RPS":       "10",
		"TRACKLINE_RATE_LIMIT_BURST":     "20",
		"TRACKLINE_CORS_ORIGINS":         "https://app.example.com, https://staging.example.com",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "db.prod.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "prod_user", cfg.Database.User)
	assert.Equal(t, "s3cret!", cfg.Database.Password)
	assert.Equal(t, "trackline_prod", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxConns)

	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.InDelta(t, 10.0, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.CORSOrigins)
}

// ---------------------------------------------------------------------------
// YAML overlay
// ---------------------------------------------------------------------------

func TestLoad_ConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trackline.yaml")
	yamlBody := `timeline:
  day_width_px: 32
  pad_before_days: 3
  pad_after_days: 7
  max_window_days: 365
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("TRACKLINE_JWT_SECRET", "test-secret-that-is-at-least-32ch")
	t.Setenv("TRACKLINE_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 32.0, cfg.Timeline.DayWidthPx, 1e-9)
	assert.Equal(t, 3, cfg.Timeline.PadBeforeDays)
	assert.Equal(t, 7, cfg.Timeline.PadAfterDays)
	assert.Equal(t, 365, cfg.Timeline.MaxWindowDays)
	// Fields absent from the file stay zero for the renderer to default.
	assert.Zero(t, cfg.Timeline.RowHeightPx)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	t.Setenv("TRACKLINE_JWT_SECRET", "test-secret-that-is-at-least-32ch")
	t.Setenv("TRACKLINE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_ConfigFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trackline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeline: [not a map"), 0o600))

	t.Setenv("TRACKLINE_JWT_SECRET", "test-secret-that-is-at-least-32ch")
	t.Setenv("TRACKLINE_CONFIG_FILE", path)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

// ---------------------------------------------------------------------------
// DSN() output format
// ---------------------------------------------------------------------------

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "default dev values",
			cfg: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "trackline",
				Password: "", DBName: "trackline_dev", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=trackline password= dbname=trackline_dev sslmode=disable",
		},
		{
			name: "production values",
			cfg: DatabaseConfig{
				Host: "db.prod", Port: 5433, User: "admin",
				Password: "p@ss!", DBName: "trackline_prod", SSLMode: "require",
			},
			want: "host=db.prod port=5433 user=admin password=p@ss! dbname=trackline_prod sslmode=require",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

// ---------------------------------------------------------------------------
// validate() direct tests
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	// validBase returns a Config that passes validation.
	validBase := func() *Config {
		return &Config{
			Database: DatabaseConfig{Port: 5432, MaxConns: 25, SSLMode: "require"},
			JWT:      JWTConfig{Secret: "test-secret-that-is-at-least-32ch"},
			Server: ServerConfig{
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				RateLimitRPS: 25,
				RateBurst:    50,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validBase().validate())
	})

	t.Run("empty JWT secret fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.JWT.Secret = ""
		assert.ErrorContains(t, c.validate(), "TRACKLINE_JWT_SECRET")
	})

	t.Run("JWT secret too short fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.JWT.Secret = "only-31-characters-long-secret!"
		assert.ErrorContains(t, c.validate(), "TRACKLINE_JWT_SECRET")
	})

	t.Run("port 0 fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Database.Port = 0
		assert.ErrorContains(t, c.validate(), "TRACKLINE_DB_PORT")
	})

	t.Run("MaxConns 0 fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Database.MaxConns = 0
		assert.ErrorContains(t, c.validate(), "TRACKLINE_DB_MAX_CONNS")
	})

	t.Run("negative day width fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Timeline.DayWidthPx = -1
		assert.ErrorContains(t, c.validate(), "timeline")
	})

	t.Run("negative max window fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Timeline.MaxWindowDays = -10
		assert.ErrorContains(t, c.validate(), "max_window_days")
	})
}

// ---------------------------------------------------------------------------
// Test helper
// ---------------------------------------------------------------------------

func strPtr(s string) *string {
	return &s
}
