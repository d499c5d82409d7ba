package engine

import (
	"errors"
	"fmt"
)

// 四类错误。只有 ErrLoadFailure 会传给 InitEngine 的调用方，
// 其余在 GetBestMove 里吞掉，宿主只看到 nil。
var (
	ErrLoadFailure       = errors.New("engine load failure")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrInvalidResult     = errors.New("invalid engine result")
	ErrSearchFailure     = errors.New("engine search failure")
)

// ErrNoMove 引擎返回空招。
var ErrNoMove = fmt.Errorf("%w: null move", ErrInvalidResult)

// Kind 返回 err 所属的错误类别，便于日志与测试断言。
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLoadFailure):
		return "load_failure"
	case errors.Is(err, ErrEngineUnavailable):
		return "engine_unavailable"
	case errors.Is(err, ErrInvalidResult):
		return "invalid_result"
	case errors.Is(err, ErrSearchFailure):
		return "search_failure"
	default:
		return "unknown"
	}
}
