package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"xqbridge/internal/engine"
	"xqbridge/internal/ucci"
)

var (
	cfgFile = "xqbridge/config.json"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

// EngineConfig 外部引擎进程设置。
type EngineConfig struct {
	Path          string   `json:"path"`
	Args          []string `json:"args"`
	Protocol      string   `json:"protocol"` // "ucci" | "uci"
	DownloadURL   string   `json:"download_url"`
	CacheDir      string   `json:"cache_dir"`
	HandshakeMs   int      `json:"handshake_ms"`
	StopGraceMs   int      `json:"stop_grace_ms"`
	Reentrant     bool     `json:"reentrant"` // 引擎能否并发搜索
	PreloadAtBoot bool     `json:"preload"`
}

type SearchConfig struct {
	MaxDepth    int `json:"max_depth"`
	TimeLimitMs int `json:"time_limit_ms"`
	HashLevel   int `json:"hash_level"`
}

type ServerConfig struct {
	Addr    string `json:"addr"`
	WebDir  string `json:"web_dir"`
	DataDir string `json:"data_dir"` // 为空则对局只存内存
}

type Config struct {
	Engine   EngineConfig `json:"engine"`
	Search   SearchConfig `json:"search"`
	Server   ServerConfig `json:"server"`
	LogLevel string       `json:"log_level"`
}

// Load 读取配置：path 为空时在 XDG 配置目录里查找，找不到就用默认值。
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		if found, err := xdg.SearchConfigFile(cfgFile); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := readCfgFile(path, &config); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch ucci.Protocol(c.Engine.Protocol) {
	case ucci.ProtocolUCCI, ucci.ProtocolUCI:
	default:
		return &InvalidConfig{fmt.Sprintf("unknown engine protocol %q", c.Engine.Protocol)}
	}
	if c.Engine.Path == "" && c.Engine.DownloadURL == "" {
		return &InvalidConfig{"engine.path or engine.download_url is required"}
	}
	if c.Search.MaxDepth <= 0 {
		return &InvalidConfig{"search.max_depth must be positive"}
	}
	if c.Search.TimeLimitMs <= 0 {
		return &InvalidConfig{"search.time_limit_ms must be positive"}
	}
	if c.Search.HashLevel <= 0 || c.Search.HashLevel > 30 {
		return &InvalidConfig{"search.hash_level must be within 1..30"}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return &InvalidConfig{fmt.Sprintf("unknown log level %q", c.LogLevel)}
	}
	return nil
}

// Save 写到 XDG 配置目录，返回写入的路径。
func (c *Config) Save() (string, error) {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return "", err
	}
	return absPath, saveCfgFile(absPath, c, 0664)
}

func (c *Config) SearchConfig() engine.SearchConfig {
	return engine.SearchConfig{
		MaxDepth:  c.Search.MaxDepth,
		TimeLimit: time.Duration(c.Search.TimeLimitMs) * time.Millisecond,
		HashLevel: c.Search.HashLevel,
	}
}

func (c *Config) UCCIConfig() ucci.Config {
	return ucci.Config{
		Path:             c.Engine.Path,
		Args:             c.Engine.Args,
		Protocol:         ucci.Protocol(c.Engine.Protocol),
		DownloadURL:      c.Engine.DownloadURL,
		CacheDir:         c.Engine.CacheDir,
		HandshakeTimeout: time.Duration(c.Engine.HandshakeMs) * time.Millisecond,
		StopGrace:        time.Duration(c.Engine.StopGraceMs) * time.Millisecond,
	}
}

func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		// 显式给出的路径不存在也要报错；XDG 查找只会返回已存在的文件
		return err
	}
	if err := json.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
