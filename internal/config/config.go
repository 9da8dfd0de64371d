// Package config loads settings from config.yaml, TODO_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	appName        = "todo"
	configFileName = "config"
	configFileType = "yaml"

	EnvPrefix    = "TODO"
	EnvConfigDir = "TODO_CONFIG_DIR"
)

// Config keys.
const (
	KeyBackend  = "backend"
	KeyDataDir  = "data_dir"
	KeyTheme    = "theme"
	KeyColor    = "color"
	KeyLogLevel = "log_level"
)

// Backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	backends = []string{BackendFile, BackendSQLite, BackendMemory}
	themes   = []string{"classic", "neon", "mono"}
	colors   = []string{"auto", "always", "never"}
)

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"backend":   KeyBackend,
	"data-dir":  KeyDataDir,
	"theme":     KeyTheme,
	"color":     KeyColor,
	"log-level": KeyLogLevel,
}

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Backend  string
	DataDir  string
	Theme    string
	Color    string
	LogLevel zapcore.Level
}

// platformDir is swapped in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir is <user config dir>/todo.
func DefaultConfigDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/todo (fallback ~/.local/share/todo)
// Others:  <user config dir>/todo
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", fmt.Errorf("home: %w", err)
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
	return DefaultConfigDir()
}

// ResolveConfigDir picks flag > TODO_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// Load reads config.yaml from configDir (a missing file is fine) and
// applies environment and flag overrides. flags may be nil.
func Load(configDir string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyBackend, BackendFile)
	v.SetDefault(KeyTheme, "classic")
	v.SetDefault(KeyColor, "auto")
	v.SetDefault(KeyLogLevel, "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if configDir != "" {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Backend: v.GetString(KeyBackend),
		DataDir: v.GetString(KeyDataDir),
		Theme:   v.GetString(KeyTheme),
		Color:   v.GetString(KeyColor),
	}
	if !slices.Contains(backends, cfg.Backend) {
		return Config{}, fmt.Errorf("%w: backend %q (want one of %v)", ErrInvalid, cfg.Backend, backends)
	}
	if !slices.Contains(themes, cfg.Theme) {
		return Config{}, fmt.Errorf("%w: theme %q (want one of %v)", ErrInvalid, cfg.Theme, themes)
	}
	if !slices.Contains(colors, cfg.Color) {
		return Config{}, fmt.Errorf("%w: color %q (want one of %v)", ErrInvalid, cfg.Color, colors)
	}
	lvl, err := zapcore.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.LogLevel = lvl

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dir
	} else {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return Config{}, fmt.Errorf("data dir: %w", err)
		}
		cfg.DataDir = abs
	}
	return cfg, nil
}
