package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withConfig(t *testing.T) {
	t.Helper()
	saved := AppConfig
	t.Cleanup(func() { AppConfig = saved })
}

func TestLoadConfigMissingFile(t *testing.T) {
	withConfig(t)
	AppConfig.Loader.Prefetch = 99

	if err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if AppConfig.Loader.Prefetch != 1 || AppConfig.Loader.MaxMisses != 3 {
		t.Errorf("missing file did not reset to defaults: %+v", AppConfig.Loader)
	}
	if AppConfig.Library.Source != "flow" || AppConfig.Log.Level != "none" {
		t.Errorf("defaults = %+v", AppConfig)
	}
}

func TestLoadConfig(t *testing.T) {
	withConfig(t)
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[library]
source = "local"
paths = ["~/books", "/srv/books"]

[loader]
max_misses = 0
prefetch = 4

[flow]
access_node = "https://rest-testnet.onflow.org"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	c := AppConfig
	if c.Library.Source != "local" {
		t.Errorf("source = %q", c.Library.Source)
	}
	if c.Library.Paths[0] != filepath.Join(home, "books") || c.Library.Paths[1] != "/srv/books" {
		t.Errorf("paths = %v", c.Library.Paths)
	}
	if c.Loader.MaxMisses != 3 || c.Loader.Prefetch != 4 {
		t.Errorf("loader = %+v", c.Loader)
	}
	if c.Flow.AccessNode != "https://rest-testnet.onflow.org" || c.Flow.LibraryAddress != "0xfed1adffd14ea9d0" {
		t.Errorf("flow = %+v", c.Flow)
	}
	if c.Log.Level != "debug" || c.Reader.ImageRows != 6 {
		t.Errorf("untouched sections lost their defaults: %+v %+v", c.Log, c.Reader)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[library\nsource=", "failed to parse config"},
		{"unknown source", "[library]\nsource = \"ipfs\"\n", "unknown library source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t)
			before := AppConfig
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte(tt.content), 0644)

			err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadConfig() error = %v, want %q", err, tt.want)
			}
			if AppConfig.Library.Source != before.Library.Source {
				t.Error("a failed load changed AppConfig")
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	withConfig(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	AppConfig = DefaultConfig()
	AppConfig.UI.Language = "zh"
	AppConfig.Flow.Retries = 7
	if err := SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	AppConfig = DefaultConfig()
	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if AppConfig.UI.Language != "zh" || AppConfig.Flow.Retries != 7 {
		t.Errorf("round trip lost values: %+v %+v", AppConfig.UI, AppConfig.Flow)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct{ in, want string }{
		{"~", home},
		{"~/x/y", filepath.Join(home, "x", "y")},
		{"/abs", "/abs"},
		{"rel/~", "rel/~"},
		{"~user", "~user"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepareLogger(t *testing.T) {
	log, closeLog, err := LogConfig{Level: "none"}.PrepareLogger(true)
	if err != nil || log == nil {
		t.Fatalf("PrepareLogger(none) = %v, %v", log, err)
	}
	if closeLog() != nil {
		t.Error("closing a disabled logger failed")
	}

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, closeLog, err = LogConfig{Level: "normal", File: path, Mode: "overwrite"}.PrepareLogger(false)
	if err != nil {
		t.Fatalf("PrepareLogger(normal) error = %v", err)
	}
	log.Debug("hidden")
	log.Info("Chapter loaded")
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Chapter loaded") || strings.Contains(string(data), "hidden") {
		t.Errorf("log file = %q", data)
	}
}

func TestPrepareLoggerCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	_, closeLog, err := LogConfig{Level: "debug", File: path}.PrepareLogger(false)
	if err != nil {
		t.Fatalf("PrepareLogger() error = %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("first close error = %v", err)
	}
	if err := closeLog(); err == nil {
		t.Error("closing an already closed log file reported no error")
	}
}
