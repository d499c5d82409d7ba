package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"xqbridge/internal/engine"
)

func TestDefaultMatchesAdapterDefaults(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got, want := c.SearchConfig(), engine.DefaultSearchConfig(); got != want {
		t.Fatalf("search config: got=%+v want=%+v", got, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"engine":{"path":"/opt/pikafish","protocol":"uci"},"search":{"time_limit_ms":300},"log_level":"debug"}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.Path != "/opt/pikafish" || c.Engine.Protocol != "uci" {
		t.Fatalf("engine: %+v", c.Engine)
	}
	if c.SearchConfig().TimeLimit != 300*time.Millisecond || c.Search.MaxDepth != 64 {
		t.Fatalf("search: %+v", c.Search)
	}
	uc := c.UCCIConfig()
	if uc.HandshakeTimeout != 10*time.Second || string(uc.Protocol) != "uci" {
		t.Fatalf("ucci config: %+v", uc)
	}
	if c.Level().String() != "debug" {
		t.Fatalf("level: %v", c.Level())
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got err=%v want fs.ErrNotExist", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Cleanup(xdg.Reload)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", dir)
	xdg.Reload()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.Path != "eleeye" {
		t.Fatalf("path: %q", c.Engine.Path)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"protocol": func(c *Config) { c.Engine.Protocol = "gtp" },
		"no path":  func(c *Config) { c.Engine.Path = "" },
		"depth":    func(c *Config) { c.Search.MaxDepth = 0 },
		"time":     func(c *Config) { c.Search.TimeLimitMs = -1 },
		"hash":     func(c *Config) { c.Search.HashLevel = 31 },
		"log":      func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		c := Default()
		mutate(&c)
		var invalid *InvalidConfig
		if err := c.Validate(); !errors.As(err, &invalid) {
			t.Errorf("%s: got err=%v want *InvalidConfig", name, err)
		}
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	var invalid *InvalidConfig
	if _, err := Load(path); !errors.As(err, &invalid) {
		t.Fatalf("got err=%v want *InvalidConfig", err)
	}
}
