package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/catxpapa/catxframeup/internal/server"
	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/cache"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/geometry"
	"github.com/catxpapa/catxframeup/pkg/history"
)

// RenderConfig holds defaults for the render commands.
type RenderConfig struct {
	MaxCanvas  int     `toml:"max_canvas"`
	WidthRatio float64 `toml:"width_ratio"`
}

// Config is the frameup configuration file.
//
//	[assets]
//	backend = "dir"
//	dir = "assets"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[history]
//	backend = "sqlite"
//	dsn = "history.db"
//
//	[server]
//	addr = ":3000"
//
//	[render]
//	max_canvas = 2048
type Config struct {
	Assets  assets.Config  `toml:"assets"`
	Cache   cache.Config   `toml:"cache"`
	History history.Config `toml:"history"`
	Server  server.Config  `toml:"server"`
	Render  RenderConfig   `toml:"render"`

	// path is the file the config was read from; empty for defaults.
	path string
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Assets:  assets.Config{Backend: assets.BackendDir, Dir: assets.DefaultDir},
		Cache:   cache.Config{Backend: cache.BackendFile},
		History: history.Config{Backend: history.BackendFile, Dir: history.DefaultDir},
		Server:  server.Config{Addr: server.DefaultAddr},
		Render:  RenderConfig{MaxCanvas: geometry.MaxCanvasDimension, WidthRatio: geometry.DefaultWidthRatio},
	}
}

// configPath resolves the config file: the flag, then $FRAMEUP_CONFIG,
// then $XDG_CONFIG_HOME/frameup/config.toml. The last one is optional.
func configPath(flag string) (path string, required bool) {
	if flag != "" {
		return flag, true
	}
	if p := os.Getenv("FRAMEUP_CONFIG"); p != "" {
		return p, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, appName, "config.toml"), false
}

// LoadConfig reads the config file named by flag (see configPath) over
// DefaultConfig and applies FRAMEUP_* environment overrides.
func LoadConfig(flag string) (Config, error) {
	cfg := DefaultConfig()

	path, required := configPath(flag)
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			cfg.path = path
		case os.IsNotExist(err) && !required:
		default:
			return Config{}, errors.Wrap(errors.ErrCodeConfigParse, err, "read config %s", path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from FRAMEUP_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"FRAMEUP_ASSETS_BACKEND", &c.Assets.Backend},
		{"FRAMEUP_ASSETS_DIR", &c.Assets.Dir},
		{"FRAMEUP_ASSETS_BUCKET", &c.Assets.Bucket},
		{"FRAMEUP_ASSETS_PREFIX", &c.Assets.Prefix},
		{"FRAMEUP_ASSETS_URL", &c.Assets.URL},
		{"FRAMEUP_CACHE_BACKEND", &c.Cache.Backend},
		{"FRAMEUP_CACHE_DIR", &c.Cache.Dir},
		{"FRAMEUP_REDIS_URL", &c.Cache.RedisURL},
		{"FRAMEUP_CACHE_NAMESPACE", &c.Cache.Namespace},
		{"FRAMEUP_HISTORY_BACKEND", &c.History.Backend},
		{"FRAMEUP_HISTORY_DIR", &c.History.Dir},
		{"FRAMEUP_HISTORY_DSN", &c.History.DSN},
		{"FRAMEUP_MONGO_URI", &c.History.MongoURI},
		{"FRAMEUP_MONGO_DATABASE", &c.History.MongoDatabase},
		{"FRAMEUP_ADDR", &c.Server.Addr},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("FRAMEUP_MAX_CANVAS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "FRAMEUP_MAX_CANVAS must be a positive integer, got %q", v)
		}
		c.Render.MaxCanvas = n
	}
	if v, ok := lookup("FRAMEUP_WIDTH_RATIO"); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "FRAMEUP_WIDTH_RATIO must be a non-negative number, got %q", v)
		}
		c.Render.WidthRatio = r
	}
	return nil
}

// Path returns the file the config was loaded from, or "".
func (c Config) Path() string { return c.path }

// Encode renders the config as TOML.
func (c Config) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
