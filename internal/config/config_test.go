package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "RECORDS_URI", "MONGO_URI", "GOOGLE_CLOUD_CREDENTIALS", "EMAIL_USER", "EMAIL_PASS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_CreatesDefaultFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "settlement.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "1qvtYTfZ_Etl5lvyuZMk_uRaJ4TBIHkha", cfg.Google.ParentFolderID)
	assert.Equal(t, "sqlite://"+filepath.Join(dir, "data/settlements.db"), cfg.Records.URI)
	assert.Equal(t, filepath.Join(dir, "data/drive"), cfg.Local.DriveDirectory)
	assert.False(t, cfg.UsesGoogle())
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "settlement.yaml")
	content := `
server:
  port: 9090
records:
  uri: postgres://user:pw@db:5432/settlements
mail:
  username: ops@example.com
  password: secret
processing:
  uploadConcurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://user:pw@db:5432/settlements", cfg.Records.URI)
	assert.Equal(t, 4, cfg.Processing.UploadConcurrency)
	// unset keys keep their defaults
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 300, cfg.Processing.BackgroundTimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("MONGO_URI", "/var/lib/settlements.db")
	t.Setenv("GOOGLE_CLOUD_CREDENTIALS", "/etc/creds.json")
	t.Setenv("EMAIL_USER", "forms@example.com")
	t.Setenv("EMAIL_PASS", "app-password")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "settlement.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/var/lib/settlements.db", cfg.Records.URI)
	assert.Equal(t, "/etc/creds.json", cfg.Google.CredentialsFile)
	assert.Equal(t, "forms@example.com", cfg.Mail.From)
	assert.Equal(t, "app-password", cfg.Mail.Password)
	assert.True(t, cfg.UsesGoogle())

	t.Setenv("RECORDS_URI", "sqlite:///tmp/x.db")
	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "settlement.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/x.db", cfg.Records.URI, "RECORDS_URI wins over MONGO_URI")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "mail credentials missing")

	cfg.Mail.Username = "u"
	cfg.Mail.Password = "p"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}
