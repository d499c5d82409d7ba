package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LoadState int

const (
	StateUnloaded LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// loadAttempt 一次加载尝试；done 关闭时 err 已确定，所有等待者共享。
type loadAttempt struct {
	done   chan struct{}
	err    error
	joined int // 挂在这次尝试上的调用方个数
}

// Loader 保证加载序列在并发请求下只执行一次。
// 失败后状态为 StateFailed，下一次 EnsureLoaded 会重新尝试。
type Loader struct {
	modules []Module
	log     zerolog.Logger

	mu       sync.Mutex
	state    LoadState
	attempt  *loadAttempt
	lastErr  error
	attempts int
}

func NewLoader(modules []Module, log zerolog.Logger) *Loader {
	return &Loader{
		modules: modules,
		log:     log.With().Str("component", "loader").Logger(),
	}
}

// EnsureLoaded 阻塞到引擎就绪或本次尝试失败。
// ctx 只限制调用方等待的时间，不会中断共享的加载过程。
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return nil
	case StateLoading:
		a := l.attempt
		a.joined++
		l.mu.Unlock()
		return wait(ctx, a)
	}

	// Unloaded 或 Failed：开启新的一次尝试
	a := &loadAttempt{done: make(chan struct{}), joined: 1}
	l.attempt = a
	l.state = StateLoading
	l.attempts++
	n := l.attempts
	l.mu.Unlock()

	go l.run(a, n)
	return wait(ctx, a)
}

func wait(ctx context.Context, a *loadAttempt) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrLoadFailure, ctx.Err())
	}
}

func (l *Loader) run(a *loadAttempt, n int) {
	start := time.Now()
	l.log.Info().Int("attempt", n).Int("modules", len(l.modules)).Msg("loading engine")

	err := l.loadModules()

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.lastErr = err
	} else {
		l.state = StateReady
		l.lastErr = nil
	}
	a.err = err
	close(a.done)
	l.mu.Unlock()

	if err != nil {
		l.log.Error().Err(err).Int("attempt", n).Dur("took", time.Since(start)).Msg("engine load failed")
		return
	}
	l.log.Info().Int("attempt", n).Dur("took", time.Since(start)).Msg("engine ready")
}

func (l *Loader) loadModules() error {
	// 加载过程脱离调用方的 ctx，独立运行。
	ctx := context.Background()
	for _, m := range l.modules {
		if m.Load == nil {
			continue
		}
		l.log.Debug().Str("module", m.Name).Msg("loading module")
		if err := loadOne(ctx, m); err != nil {
			return fmt.Errorf("%w: module %s: %w", ErrLoadFailure, m.Name, err)
		}
	}
	return nil
}

func loadOne(ctx context.Context, m Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Load(ctx)
}

func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err 返回最近一次失败的原因；就绪或未加载时为 nil。
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// waiting 返回当前加载尝试上的调用方个数，未在加载时为 0。
func (l *Loader) waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLoading || l.attempt == nil {
		return 0
	}
	return l.attempt.joined
}

// Attempts 返回已经开始过的加载序列次数。
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}
