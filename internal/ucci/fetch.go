package ucci

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"time"
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// fetch 在本地找不到引擎时从 DownloadURL 下载到 CacheDir，并改写 cfg.Path。
func (d *Driver) fetch(ctx context.Context) error {
	if d.cfg.Path != "" {
		if _, err := exec.LookPath(d.cfg.Path); err == nil {
			d.log.Debug().Str("path", d.cfg.Path).Msg("engine binary present, skip download")
			return nil
		}
	}

	u, err := url.Parse(d.cfg.DownloadURL)
	if err != nil {
		return fmt.Errorf("invalid download url: %w", err)
	}
	name := path.Base(u.Path)
	if d.cfg.Path != "" {
		name = filepath.Base(d.cfg.Path)
	}
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("cannot derive file name from %q", d.cfg.DownloadURL)
	}
	if d.cfg.CacheDir == "" {
		return fmt.Errorf("no cache dir configured for %q", d.cfg.DownloadURL)
	}
	dest := filepath.Join(d.cfg.CacheDir, name)

	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		d.cfg.Path = dest
		return nil
	}
	if err := os.MkdirAll(d.cfg.CacheDir, 0755); err != nil {
		return err
	}

	d.log.Info().Str("url", d.cfg.DownloadURL).Str("dest", dest).Msg("downloading engine")
	if err := download(ctx, d.cfg.DownloadURL, dest); err != nil {
		return fmt.Errorf("downloading engine: %w", err)
	}
	d.cfg.Path = dest
	return nil
}

// download 先写临时文件，完整后再改名，避免留下半个可执行文件。
func download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
