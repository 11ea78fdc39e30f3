package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is where Load looks for the JSON config when no path is given.
const DefaultPath = "config/config.json"

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	JWTTTLHours        int
	RateLimitPerMinute int
	AllowedOrigins     []string
	OAuthRedirectBase  string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// OAuth providers
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for token revocation and OAuth state
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Registration security
	RegisterCaptchaEnabled bool
	// Admins
	AdminUsernames []string
	// Uploaded post images
	MediaRoot      string
	MediaURL       string
	MaxImageSizeMB int

	Blog BlogConfig
}

// BlogConfig carries the content limits shared by models, forms and listings.
type BlogConfig struct {
	PostsPerPage  int
	TitleMaxLen   int
	NameMaxLen    int
	SlugMaxLen    int
	CommentMaxLen int
}

// Load reads configuration with precedence: JSON file -> defaults -> environment variables.
// An empty path means DefaultPath. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	if path == "" {
		path = DefaultPath
	}

	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set in environment variables")
	}
	return cfg, nil
}

// IsAdmin reports whether username is configured as an admin (case-insensitive).
func (c AppConfig) IsAdmin(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range c.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.JWTTTLHours = getInt(app, "JWTTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.OAuthRedirectBase = getString(app, "OAuthRedirectBase")
		if list := getStringSlice(app, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		out.GitHubClientID = getString(oa, "GitHubClientID")
		out.GitHubClientSecret = getString(oa, "GitHubClientSecret")
		out.GoogleClientID = getString(oa, "GoogleClientID")
		out.GoogleClientSecret = getString(oa, "GoogleClientSecret")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.GinMode = getString(lg, "GinMode")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if rg, ok := raw["register"].(map[string]any); ok {
		out.RegisterCaptchaEnabled = getBool(rg, "CaptchaEnabled")
	}

	// Admin section wins over app.AdminUsernames
	if adm, ok := raw["admin"].(map[string]any); ok {
		if list := getStringSlice(adm, "Usernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if md, ok := raw["media"].(map[string]any); ok {
		out.MediaRoot = getString(md, "Root")
		out.MediaURL = getString(md, "URL")
		out.MaxImageSizeMB = getInt(md, "MaxImageSizeMB")
	}

	if bl, ok := raw["blog"].(map[string]any); ok {
		out.Blog.PostsPerPage = getInt(bl, "PostsPerPage")
		out.Blog.TitleMaxLen = getInt(bl, "TitleMaxLen")
		out.Blog.NameMaxLen = getInt(bl, "NameMaxLen")
		out.Blog.SlugMaxLen = getInt(bl, "SlugMaxLen")
		out.Blog.CommentMaxLen = getInt(bl, "CommentMaxLen")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:8080"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blogicum"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media"
	}
	if c.MaxImageSizeMB == 0 {
		c.MaxImageSizeMB = 10
	}
	c.Blog = c.Blog.withDefaults()
}

func (b BlogConfig) withDefaults() BlogConfig {
	if b.PostsPerPage <= 0 {
		b.PostsPerPage = 10
	}
	if b.TitleMaxLen <= 0 {
		b.TitleMaxLen = 256
	}
	if b.NameMaxLen <= 0 {
		b.NameMaxLen = 256
	}
	if b.SlugMaxLen <= 0 {
		b.SlugMaxLen = 64
	}
	if b.CommentMaxLen <= 0 {
		b.CommentMaxLen = 5000
	}
	return b
}

// DefaultBlog returns the content limits used when nothing is configured.
func DefaultBlog() BlogConfig {
	return BlogConfig{}.withDefaults()
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var firstErr error
	intVar := func(key string, dst *int) {
		v := getEnv(key, "")
		if v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid integer value %s for %s: %w", v, key, err)
			}
			return
		}
		*dst = i
	}
	strVar := func(key string, dst *string) {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}
	boolVar := func(key string, dst *bool) {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true"
		}
	}

	strVar("APP_PORT", &c.AppPort)
	strVar("JWT_SECRET", &c.JWTSecret)
	intVar("JWT_TTL_HOURS", &c.JWTTTLHours)
	strVar("GIN_MODE", &c.GinMode)
	strVar("GIN_PATH", &c.GinPath)
	strVar("DB_DRIVER", &c.DBDriver)
	strVar("DATABASE_URI", &c.DatabaseURI)
	strVar("DB_HOST", &c.DBHost)
	strVar("DB_PORT", &c.DBPort)
	strVar("DB_USER", &c.DBUser)
	strVar("DB_PASSWORD", &c.DBPassword)
	strVar("DB_NAME", &c.DBName)
	strVar("GITHUB_CLIENT_ID", &c.GitHubClientID)
	strVar("GITHUB_CLIENT_SECRET", &c.GitHubClientSecret)
	strVar("GOOGLE_CLIENT_ID", &c.GoogleClientID)
	strVar("GOOGLE_CLIENT_SECRET", &c.GoogleClientSecret)
	intVar("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if getEnv("CORS_ALLOWED_ORIGINS", "") != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if getEnv("ADMIN_USERNAMES", "") != "" {
		c.AdminUsernames = readListEnv("ADMIN_USERNAMES", c.AdminUsernames)
	}
	strVar("OAUTH_REDIRECT_BASE_URL", &c.OAuthRedirectBase)
	strVar("REDIS_HOST", &c.RedisHost)
	intVar("REDIS_PORT", &c.RedisPort)
	intVar("REDIS_DB", &c.RedisDB)
	strVar("REDIS_PASSWORD", &c.RedisPassword)
	strVar("LOG_LEVEL", &c.LogLevel)
	strVar("LOG_PATH", &c.LogPath)
	intVar("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	intVar("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	intVar("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	boolVar("LOG_COMPRESS", &c.LogCompress)
	boolVar("REGISTER_CAPTCHA_ENABLED", &c.RegisterCaptchaEnabled)
	strVar("MEDIA_ROOT", &c.MediaRoot)
	strVar("MEDIA_URL", &c.MediaURL)
	intVar("MAX_IMAGE_SIZE_MB", &c.MaxImageSizeMB)
	intVar("POSTS_PER_PAGE", &c.Blog.PostsPerPage)

	return firstErr
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
