package ucci

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// resolveEnginePath 找引擎可执行文件：原样路径、PATH、可执行文件所在目录，依次尝试。
func resolveEnginePath(enginePath string) (string, error) {
	if enginePath == "" {
		return "", fmt.Errorf("empty engine path")
	}

	candidates := make([]string, 0, 4)
	candidates = append(candidates, enginePath)

	if !strings.ContainsRune(enginePath, os.PathSeparator) {
		if p, err := exec.LookPath(enginePath); err == nil {
			candidates = append(candidates, p)
		}
	}
	if !filepath.IsAbs(enginePath) {
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			candidates = append(candidates, filepath.Join(exeDir, enginePath))
			candidates = append(candidates, filepath.Join(exeDir, filepath.Base(enginePath)))
		}
	}

	checked := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		checked = append(checked, abs)
		info, err := os.Stat(abs)
		if err == nil && !info.IsDir() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("engine binary not found, checked: %s", strings.Join(checked, ", "))
}
