package ucci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"xqbridge/internal/engine"
)

var errProcessExited = errors.New("engine process exited")

// Config 外部引擎进程设置。
type Config struct {
	Path     string   // 引擎可执行文件
	Args     []string // 额外命令行参数
	Env      []string // 追加到 os.Environ() 之后的环境变量
	Protocol Protocol // ucci（默认）或 uci

	DownloadURL string // Path 不存在时从这里下载
	CacheDir    string // 下载的引擎放在这里

	HandshakeTimeout time.Duration // 等 ucciok / readyok 的时间
	StopGrace        time.Duration // 发出 stop 后等 bestmove 的时间
}

func (c *Config) applyDefaults() {
	if c.Protocol == "" {
		c.Protocol = ProtocolUCCI
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.StopGrace <= 0 {
		c.StopGrace = 2 * time.Second
	}
}

// Driver 用引擎子进程实现 engine.Runtime。
type Driver struct {
	cfg Config
	log zerolog.Logger

	// mu 串行化与子进程的所有交互
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}
	hashMB int
	// stale 上次搜索在 stop 后没等到 bestmove，引擎输出可能还落后一拍
	stale bool

	ready atomic.Bool
}

func New(cfg Config, log zerolog.Logger) *Driver {
	cfg.applyDefaults()
	return &Driver{
		cfg: cfg,
		log: log.With().Str("component", "ucci").Str("engine", filepath.Base(cfg.Path)).Logger(),
	}
}

// Modules 加载顺序：下载（可选）→ 局面模块（启动进程+握手）→ 搜索模块（isready）。
func (d *Driver) Modules() []engine.Module {
	mods := make([]engine.Module, 0, 3)
	if d.cfg.DownloadURL != "" {
		mods = append(mods, engine.Module{Name: "fetch", Load: d.fetch})
	}
	mods = append(mods,
		engine.Module{Name: "position", Load: d.loadPosition},
		engine.Module{Name: "search", Load: d.loadSearch},
	)
	return mods
}

// Capabilities 在两个模块都加载成功前返回 nil。
func (d *Driver) Capabilities() *engine.Capabilities {
	if !d.ready.Load() {
		return nil
	}
	return (&engine.Capabilities{
		NewPosition: d.newPosition,
		Search:      d.search,
	}).DefaultAccessors()
}

func (d *Driver) loadPosition(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 重试时先清掉上一次残留的进程
	d.stopLocked()

	if err := d.startLocked(); err != nil {
		return err
	}
	cmd, ok := d.cfg.Protocol.handshake()
	if err := d.sendLocked(cmd); err != nil {
		return err
	}
	if err := d.expectLocked(ctx, ok, d.cfg.HandshakeTimeout); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

func (d *Driver) loadSearch(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd == nil {
		return errors.New("engine process not started")
	}
	if err := d.sendLocked("isready"); err != nil {
		return err
	}
	if err := d.expectLocked(ctx, "readyok", d.cfg.HandshakeTimeout); err != nil {
		return fmt.Errorf("isready: %w", err)
	}
	d.ready.Store(true)
	d.log.Info().Str("protocol", string(d.cfg.Protocol)).Msg("engine ready")
	return nil
}

func (d *Driver) startLocked() error {
	bin, err := resolveEnginePath(d.cfg.Path)
	if err != nil {
		return err
	}
	cmd := exec.Command(bin, d.cfg.Args...)
	// ElephantEye 等引擎按相对路径找开局库
	cmd.Dir = filepath.Dir(bin)
	if len(d.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), d.cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.lines = make(chan string, 256)
	d.exited = make(chan struct{})
	d.hashMB = 0
	d.stale = false
	go d.readLoop(stdout, d.lines, d.exited, cmd)
	d.log.Debug().Int("pid", cmd.Process.Pid).Msg("engine process started")
	return nil
}

func (d *Driver) readLoop(r io.Reader, lines chan<- string, exited chan<- struct{}, cmd *exec.Cmd) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines <- strings.TrimRight(sc.Text(), "\r")
	}
	close(lines)
	err := cmd.Wait()
	d.ready.Store(false)
	d.log.Warn().Err(err).Msg("engine process exited")
	close(exited)
}

func (d *Driver) sendLocked(line string) error {
	if d.stdin == nil {
		return errProcessExited
	}
	d.log.Trace().Str("cmd", line).Msg("send")
	if _, err := fmt.Fprintf(d.stdin, "%s\n", line); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// expectLocked 读到以 token 开头的行为止。
func (d *Driver) expectLocked(ctx context.Context, token string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-d.lines:
			if !ok {
				return errProcessExited
			}
			d.log.Trace().Str("line", line).Msg("recv")
			if strings.HasPrefix(strings.TrimSpace(line), token) {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timed out waiting for %q after %v", token, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainLocked 丢掉上一次搜索遗留的输出，避免把旧的 bestmove 当成新的结果。
func (d *Driver) drainLocked() error {
	for {
		select {
		case _, ok := <-d.lines:
			if !ok {
				return errProcessExited
			}
		default:
			return nil
		}
	}
}

func (d *Driver) newPosition(fen string) (engine.Position, error) {
	return positionCommand(fen)
}

func (d *Driver) search(pos engine.Position, hashLevel, depth int, limit time.Duration) (engine.Move, error) {
	cmd, ok := pos.(string)
	if !ok || !strings.HasPrefix(cmd, "fen ") {
		return engine.NullMove, fmt.Errorf("unexpected position %T", pos)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready.Load() {
		return engine.NullMove, errProcessExited
	}
	if d.stale {
		if err := d.resyncLocked(); err != nil {
			return engine.NullMove, err
		}
	}
	if err := d.drainLocked(); err != nil {
		return engine.NullMove, err
	}
	if mb := hashSizeMB(hashLevel); mb != d.hashMB {
		if err := d.sendLocked(d.cfg.Protocol.setHash(mb)); err != nil {
			return engine.NullMove, err
		}
		d.hashMB = mb
	}
	if err := d.sendLocked("position " + cmd); err != nil {
		return engine.NullMove, err
	}
	if err := d.sendLocked(fmt.Sprintf("go depth %d", depth)); err != nil {
		return engine.NullMove, err
	}

	start := time.Now()
	budget := time.NewTimer(limit)
	defer budget.Stop()
	var grace <-chan time.Time
	for {
		select {
		case line, ok := <-d.lines:
			if !ok {
				return engine.NullMove, errProcessExited
			}
			mv, done, err := parseBestMove(line)
			if !done {
				continue
			}
			d.log.Debug().Str("line", line).Dur("took", time.Since(start)).Msg("search finished")
			return mv, err
		case <-budget.C:
			// 时间到：让引擎交出当前最佳招
			if err := d.sendLocked("stop"); err != nil {
				return engine.NullMove, err
			}
			grace = time.After(d.cfg.StopGrace)
		case <-grace:
			d.stale = true
			return engine.NullMove, fmt.Errorf("no bestmove within %v after stop", d.cfg.StopGrace)
		}
	}
}

// resyncLocked 用 isready/readyok 对齐输出，途中迟到的 bestmove 一律丢弃。
// 等不到 readyok 就重启进程。
func (d *Driver) resyncLocked() error {
	err := d.sendLocked("isready")
	if err == nil {
		err = d.expectLocked(context.Background(), "readyok", d.cfg.HandshakeTimeout)
	}
	if err == nil {
		d.stale = false
		return nil
	}

	d.log.Warn().Err(err).Msg("engine out of sync, restarting")
	d.stopLocked()
	if err := d.startLocked(); err != nil {
		return err
	}
	cmd, ok := d.cfg.Protocol.handshake()
	for _, step := range []struct{ send, expect string }{{cmd, ok}, {"isready", "readyok"}} {
		if err := d.sendLocked(step.send); err != nil {
			return err
		}
		if err := d.expectLocked(context.Background(), step.expect, d.cfg.HandshakeTimeout); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}
	d.stale = false
	d.ready.Store(true)
	return nil
}

// Close 结束引擎进程。进程退出后 Capabilities 返回 nil。
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	return nil
}

func (d *Driver) stopLocked() {
	if d.cmd == nil {
		return
	}
	d.ready.Store(false)
	_ = d.sendLocked("quit")
	_ = d.stdin.Close()
	// readLoop 可能卡在满的 lines 上，先把剩余输出读空
	go func(lines <-chan string) {
		for range lines {
		}
	}(d.lines)
	select {
	case <-d.exited:
	case <-time.After(time.Second):
		_ = d.cmd.Process.Kill()
		<-d.exited
	}
	d.cmd = nil
	d.stdin = nil
}
