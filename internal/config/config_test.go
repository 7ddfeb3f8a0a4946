package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir переводит тест во временный каталог, чтобы .env и config.yaml не подхватились из репозитория.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":8080"
staging_backend: BADGER
badger_dir: /var/lib/chunkstage
final_dir: /srv/final
verify_digest: md5
log_level: debug
`), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("FINAL_DIR", "/data/final")
	t.Setenv("MAX_MEMORY_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "badger", cfg.StagingBackend)
	assert.Equal(t, "/var/lib/chunkstage", cfg.BadgerDir)
	assert.Equal(t, "/data/final", cfg.FinalDir)
	assert.Equal(t, int64(1024), cfg.MaxMemoryBytes)
	assert.Equal(t, "md5", cfg.VerifyDigest)
	assert.Equal(t, "debug", cfg.LogLevel)
	// не заданное ни в файле, ни в окружении остаётся по умолчанию
	assert.Equal(t, "./uploads/temp", cfg.StagingDir)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STAGING_BACKEND=memory\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("STAGING_BACKEND") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StagingBackend)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	chdir(t)
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "default", mutate: func(*Config) {}, ok: true},
		{name: "memory backend without dirs", mutate: func(c *Config) { c.StagingBackend = "memory"; c.StagingDir = "" }, ok: true},
		{name: "unknown backend", mutate: func(c *Config) { c.StagingBackend = "s3" }},
		{name: "fs without staging dir", mutate: func(c *Config) { c.StagingDir = "" }},
		{name: "badger without dir", mutate: func(c *Config) { c.StagingBackend = "badger"; c.BadgerDir = "" }},
		{name: "unknown digest", mutate: func(c *Config) { c.VerifyDigest = "crc32" }},
		{name: "sha256 digest", mutate: func(c *Config) { c.VerifyDigest = " SHA256 " }, ok: true},
		{name: "no final dir", mutate: func(c *Config) { c.FinalDir = "" }},
		{name: "no listen addr", mutate: func(c *Config) { c.ListenAddr = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
