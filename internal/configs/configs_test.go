package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"CONFIG_FILE", "ENVIRONMENT", "PORT", "POW_DIFFICULTY", "LOG_LEVEL", "TIMEZONE",
	"ALLOWED_ORIGINS", "SESSION_SECRET", "DATA_DIR", "DATABASE_URL",
	"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0, cfg.PowDifficulty)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.UsePostgres())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("POW_DIFFICULTY", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.PowDifficulty)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "privileged port", env: map[string]string{"PORT": "80"}},
		{name: "bad port", env: map[string]string{"PORT": "abc"}},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production"}},
		{name: "partial s3", env: map[string]string{"S3_BUCKET_NAME": "bucket"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "environment: production\nport: 7000\nsessionSecret: from-file\ndataDir: /srv/data\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 7100, cfg.Port, "env overrides file")
	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.Equal(t, "/srv/data", cfg.DataDir)
}
