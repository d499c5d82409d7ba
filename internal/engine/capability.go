package engine

import (
	"context"
	"time"
)

// Position 是引擎自己的局面对象，适配层不关心其内容。
type Position any

// Capabilities 是适配层依赖的全部引擎能力。任何一项为 nil 都视为引擎不可用。
type Capabilities struct {
	// NewPosition 用序列化后的局面构造引擎局面。
	NewPosition func(fen string) (Position, error)
	// Search 在 depth 与 limit 两个上限内迭代加深，返回当时的最佳招。
	// hashLevel 为置换表大小提示（2^hashLevel 项）。
	Search func(pos Position, hashLevel, depth int, limit time.Duration) (Move, error)
	// Src / Dst 从原生招法中取出起止格。
	Src func(Move) int
	Dst func(Move) int
}

func (c *Capabilities) Available() bool {
	return c != nil && c.NewPosition != nil && c.Search != nil && c.Src != nil && c.Dst != nil
}

// DefaultAccessors 填入与 Move.Src / Move.Dst 一致的取格函数。
func (c *Capabilities) DefaultAccessors() *Capabilities {
	c.Src = Move.Src
	c.Dst = Move.Dst
	return c
}

// Module 是加载序列中的一步，按顺序执行（局面模块在搜索模块之前）。
type Module struct {
	Name string
	Load func(ctx context.Context) error
}

// Runtime 是一个外部引擎的实现：提供加载步骤，以及加载完成后的能力集合。
// 加载前或引擎缺失时 Capabilities 可以返回 nil。
type Runtime interface {
	Modules() []Module
	Capabilities() *Capabilities
}
