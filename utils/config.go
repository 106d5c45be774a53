package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Reader layout
type ReaderConfig struct {
	VerticalPadding   int `toml:"vertical_padding"`
	HorizontalPadding int `toml:"horizontal_padding"`
	ImageRows         int `toml:"image_rows"`
}

// Flow access node and contract
type FlowConfig struct {
	AccessNode       string `toml:"access_node"`
	LibraryAddress   string `toml:"library_address"`
	FlowTokenAddress string `toml:"flowtoken_address"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	Retries          int    `toml:"retries"`
	RetryWaitSeconds int    `toml:"retry_wait_seconds"`
}

// Paragraph loading
type LoaderConfig struct {
	MaxMisses int `toml:"max_misses"`
	Prefetch  int `toml:"prefetch"`
}

// Local library settings
type LibraryConfig struct {
	Source string   `toml:"source"` // flow or local
	Paths  []string `toml:"paths"`
}

// On-disk cache of fetched chapters
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type UIConfig struct {
	Language string `toml:"language"`
}

// Root config
type Config struct {
	Reader  ReaderConfig  `toml:"reader"`
	Flow    FlowConfig    `toml:"flow"`
	Loader  LoaderConfig  `toml:"loader"`
	Library LibraryConfig `toml:"library"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// Global variable to hold config
var AppConfig = DefaultConfig()

func DefaultConfig() Config {
	dir := ConfigDir()
	return Config{
		Reader: ReaderConfig{
			VerticalPadding:   1,
			HorizontalPadding: 2,
			ImageRows:         6,
		},
		Flow: FlowConfig{
			AccessNode:       "https://rest-mainnet.onflow.org",
			LibraryAddress:   "0xfed1adffd14ea9d0",
			FlowTokenAddress: "0x1654653399040a61",
			TimeoutSeconds:   30,
			Retries:          3,
			RetryWaitSeconds: 2,
		},
		Loader: LoaderConfig{
			MaxMisses: 3,
			Prefetch:  1,
		},
		Library: LibraryConfig{
			Source: "flow",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(dir, "cache"),
		},
		Log: LogConfig{
			Level: "none",
			File:  filepath.Join(dir, AppName+".log"),
			Mode:  "overwrite",
		},
		UI: UIConfig{
			Language: "en",
		},
	}
}

// ConfigDir is ~/.config/alexandria_reader, or a relative directory when the
// home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alexandria_reader"
	}
	return filepath.Join(home, ".config", "alexandria_reader")
}

func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ExpandPath replaces leading "~" with user home dir
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// LoadConfig reads config.toml into AppConfig. Values missing from the file
// keep their defaults and a missing file is not an error.
func LoadConfig(path string) error {
	conf := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &conf); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// Expand ~ in paths
	for i, p := range conf.Library.Paths {
		conf.Library.Paths[i] = ExpandPath(p)
	}
	conf.Cache.Dir = ExpandPath(conf.Cache.Dir)
	conf.Log.File = ExpandPath(conf.Log.File)

	if conf.Loader.MaxMisses <= 0 {
		conf.Loader.MaxMisses = 3
	}
	if conf.Loader.Prefetch <= 0 {
		conf.Loader.Prefetch = 1
	}
	switch conf.Library.Source {
	case "flow", "local":
	default:
		return fmt.Errorf("unknown library source %q", conf.Library.Source)
	}

	AppConfig = conf
	return nil
}

// SaveConfig writes AppConfig back to path.
func SaveConfig(path string) error {
	data, err := toml.Marshal(AppConfig)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
