package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default 的搜索参数与引擎适配层的默认值一致：深度 64、900ms、2^15 置换表。
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Path:        "eleeye",
			Protocol:    "ucci",
			CacheDir:    filepath.Join(xdg.CacheHome, "xqbridge", "engines"),
			HandshakeMs: 10000,
			StopGraceMs: 2000,
		},
		Search: SearchConfig{
			MaxDepth:    64,
			TimeLimitMs: 900,
			HashLevel:   15,
		},
		Server: ServerConfig{
			Addr:    ":2888",
			WebDir:  "./web",
			DataDir: filepath.Join(xdg.DataHome, "xqbridge", "games"),
		},
		LogLevel: "info",
	}
}
