package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"xqbridge/internal/xiangqi"
)

// 搜索配置
type SearchConfig struct {
	MaxDepth  int           // 深度上限，足够大，实际由时间截止
	TimeLimit time.Duration // 单次搜索时间预算
	HashLevel int           // 置换表 2^HashLevel 项
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxDepth:  64,
		TimeLimit: 900 * time.Millisecond,
		HashLevel: 15,
	}
}

type Option func(*Adapter)

func WithSearchConfig(cfg SearchConfig) Option {
	return func(a *Adapter) {
		if cfg.MaxDepth > 0 {
			a.cfg.MaxDepth = cfg.MaxDepth
		}
		if cfg.TimeLimit > 0 {
			a.cfg.TimeLimit = cfg.TimeLimit
		}
		if cfg.HashLevel > 0 {
			a.cfg.HashLevel = cfg.HashLevel
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// WithReentrantEngine 声明引擎可以并发搜索，适配层不再串行化。
func WithReentrantEngine() Option {
	return func(a *Adapter) { a.sem = nil }
}

// Adapter 是宿主与外部引擎之间的唯一入口：
// 加载引擎、翻译局面、限时搜索、把结果翻译回 0..89 的格子编号。
type Adapter struct {
	rt     Runtime
	loader *Loader
	cfg    SearchConfig
	sem    *semaphore.Weighted
	log    zerolog.Logger
}

// NewAdapter 的 rt 可以为 nil，此时引擎始终不可用。
func NewAdapter(rt Runtime, opts ...Option) *Adapter {
	a := &Adapter{
		rt:  rt,
		cfg: DefaultSearchConfig(),
		sem: semaphore.NewWeighted(1),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	var modules []Module
	if rt != nil {
		modules = rt.Modules()
	}
	a.loader = NewLoader(modules, a.log)
	a.log = a.log.With().Str("component", "adapter").Logger()
	return a
}

func (a *Adapter) Loader() *Loader { return a.loader }

func (a *Adapter) Config() SearchConfig { return a.cfg }

// EnsureLoaded 把加载失败原样返回给调用方，由宿主决定重试或降级。
func (a *Adapter) EnsureLoaded(ctx context.Context) error {
	return a.loader.EnsureLoaded(ctx)
}

func (a *Adapter) capabilities() (*Capabilities, error) {
	if a.rt == nil {
		return nil, fmt.Errorf("%w: no runtime", ErrEngineUnavailable)
	}
	caps := a.rt.Capabilities()
	if !caps.Available() {
		return nil, fmt.Errorf("%w: capabilities missing", ErrEngineUnavailable)
	}
	return caps, nil
}

// Available 报告运行时当前是否提供完整的能力集合；不触发加载。
// 进程在就绪后退出时，加载状态仍是 StateReady，但这里返回 false。
func (a *Adapter) Available() bool {
	_, err := a.capabilities()
	return err == nil
}

// InitEngine 引擎就绪返回 true，不可用返回 false，不会 panic。
func (a *Adapter) InitEngine() bool {
	if err := a.EnsureLoaded(context.Background()); err != nil {
		a.log.Warn().Err(err).Msg("engine init failed")
		return false
	}
	if _, err := a.capabilities(); err != nil {
		a.log.Warn().Err(err).Msg("engine init failed")
		return false
	}
	return true
}

// BestMove 返回引擎给出的招法，失败时返回带类别的错误（见 Kind）。
// board 按值复制，调用返回后不再持有。
func (a *Adapter) BestMove(board xiangqi.Board, side xiangqi.Side) (xiangqi.Move, error) {
	if err := a.EnsureLoaded(context.Background()); err != nil {
		return xiangqi.Move{}, err
	}
	caps, err := a.capabilities()
	if err != nil {
		return xiangqi.Move{}, err
	}

	fen := xiangqi.Encode(&board, side)

	if a.sem != nil {
		// 同一时刻只允许一个搜索进入引擎；其余在这里排队
		if err := a.sem.Acquire(context.Background(), 1); err != nil {
			return xiangqi.Move{}, fmt.Errorf("%w: %w", ErrSearchFailure, err)
		}
		defer a.sem.Release(1)
	}

	start := time.Now()
	mv, err := a.search(caps, fen)
	if err != nil {
		return xiangqi.Move{}, err
	}
	if mv == NullMove {
		return xiangqi.Move{}, ErrNoMove
	}

	src, dst, err := a.squares(caps, mv)
	if err != nil {
		return xiangqi.Move{}, err
	}
	host, err := DecodeSquares(src, dst)
	if err != nil {
		return xiangqi.Move{}, err
	}

	a.log.Debug().
		Str("fen", fen).
		Stringer("engine_move", mv).
		Int("from", host.From).
		Int("to", host.To).
		Dur("took", time.Since(start)).
		Msg("best move")
	return host, nil
}

// search 调用引擎；引擎内部的 panic 也归为 ErrSearchFailure。
func (a *Adapter) search(caps *Capabilities, fen string) (mv Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			mv, err = NullMove, fmt.Errorf("%w: panic: %v", ErrSearchFailure, r)
		}
	}()

	pos, err := caps.NewPosition(fen)
	if err != nil {
		return NullMove, fmt.Errorf("%w: position %q: %w", ErrSearchFailure, fen, err)
	}
	mv, err = caps.Search(pos, a.cfg.HashLevel, a.cfg.MaxDepth, a.cfg.TimeLimit)
	if err != nil {
		return NullMove, fmt.Errorf("%w: %w", ErrSearchFailure, err)
	}
	return mv, nil
}

func (a *Adapter) squares(caps *Capabilities, mv Move) (src, dst int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: accessor panic: %v", ErrInvalidResult, r)
		}
	}()
	return caps.Src(mv), caps.Dst(mv), nil
}

// GetBestMove 是给宿主的入口：任何失败都返回 nil，从不 panic。
func (a *Adapter) GetBestMove(board xiangqi.Board, side xiangqi.Side) *xiangqi.Move {
	mv, err := a.BestMove(board, side)
	if err != nil {
		a.log.Warn().Err(err).Str("kind", Kind(err)).Str("side", side.String()).Msg("no move from engine")
		return nil
	}
	return &mv
}
