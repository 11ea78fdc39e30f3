package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 72, cfg.JWTTTLHours)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "", cfg.RedisHost)
	assert.Equal(t, DefaultBlog(), cfg.Blog)
	assert.Equal(t, 10, cfg.Blog.PostsPerPage)
}

func TestLoadJSONSections(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	path := writeConfig(t, `{
		"app": {"AppPort": "9000", "AdminUsernames": ["root"]},
		"database": {"Driver": "sqlite", "DatabaseURI": "blog.db"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"Level": "debug", "GinPath": "logs/gin.log"},
		"admin": {"Usernames": ["alice", "bob"]},
		"media": {"Root": "uploads", "MaxImageSizeMB": 2},
		"blog": {"PostsPerPage": 5}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "blog.db", cfg.DatabaseURI)
	assert.Equal(t, "cache", cfg.RedisHost)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AdminUsernames)
	assert.Equal(t, "uploads", cfg.MediaRoot)
	assert.Equal(t, "/media", cfg.MediaURL)
	assert.Equal(t, 2, cfg.MaxImageSizeMB)
	assert.Equal(t, 5, cfg.Blog.PostsPerPage)
	assert.Equal(t, 256, cfg.Blog.TitleMaxLen)
}

func TestLoadEnvOverridesJSON(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "7000")
	t.Setenv("POSTS_PER_PAGE", "3")
	t.Setenv("ADMIN_USERNAMES", " carol , dave ,")
	path := writeConfig(t, `{"app": {"AppPort": "9000"}, "blog": {"PostsPerPage": 5}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.AppPort)
	assert.Equal(t, 3, cfg.Blog.PostsPerPage)
	assert.Equal(t, []string{"carol", "dave"}, cfg.AdminUsernames)
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(writeConfig(t, `{not json`))
	assert.Error(t, err)

	t.Setenv("REDIS_PORT", "abc")
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := AppConfig{AdminUsernames: []string{"Alice", " bob "}}
	assert.True(t, cfg.IsAdmin("alice"))
	assert.True(t, cfg.IsAdmin("bob"))
	assert.False(t, cfg.IsAdmin("carol"))
	assert.False(t, cfg.IsAdmin(""))
}

func TestOpenDatabaseSQLite(t *testing.T) {
	db, err := OpenDatabase(AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	type probe struct{ ID uint }
	require.NoError(t, Migrate(db, &probe{}))
	assert.True(t, db.Migrator().HasTable(&probe{}))
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}
