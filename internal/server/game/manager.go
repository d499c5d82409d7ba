package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"xqbridge/internal/xiangqi"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrBadMove   = errors.New("bad move")
	ErrStoreFail = errors.New("game store failure")
)

// Store 持久化对局；Manager 在内存里缓存，写操作同步落盘。
type Store interface {
	SaveGame(g *GameState) error
	LoadGame(id string) (*GameState, error) // 不存在时返回 ErrNotFound
}

type Manager struct {
	mu    sync.RWMutex
	games map[string]*GameState
	store Store
}

// NewManager 的 store 可以为 nil，此时只存内存。
func NewManager(store Store) *Manager {
	return &Manager{games: make(map[string]*GameState), store: store}
}

func (m *Manager) NewGame() (*GameState, error) {
	now := time.Now()
	g := &GameState{
		ID:         uuid.NewString(),
		Board:      xiangqi.NewInitialBoard(),
		SideToMove: xiangqi.Red, // 红先
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(g); err != nil {
		return nil, err
	}
	m.games[g.ID] = g
	return g.clone(), nil
}

// Get 返回对局副本，调用方可以随意修改。
func (m *Manager) Get(id string) (*GameState, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	m.mu.RUnlock()
	if ok {
		return g.clone(), nil
	}
	if m.store == nil {
		return nil, ErrNotFound
	}

	g, err := m.store.LoadGame(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if cur, ok := m.games[id]; ok {
		g = cur
	} else {
		m.games[id] = g
	}
	m.mu.Unlock()
	return g.clone(), nil
}

// Play 落子。这里不判断象棋规则，只检查：起点是行棋方的子，终点不是己方的子。
func (m *Manager) Play(id string, mv xiangqi.Move) (*GameState, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkMove(g, mv); err != nil {
		return nil, err
	}

	next := g.clone()
	if captured := next.Board.Apply(mv); captured != 0 {
		next.Captured = append(next.Captured, captured)
	}
	next.Moves = append(next.Moves, mv)
	next.SideToMove = next.SideToMove.Opposite()
	next.UpdatedAt = time.Now()

	if err := m.save(next); err != nil {
		return nil, err
	}
	m.games[id] = next
	return next.clone(), nil
}

func checkMove(g *GameState, mv xiangqi.Move) error {
	if !mv.Valid() || mv.From == mv.To {
		return fmt.Errorf("%w: %d->%d out of range", ErrBadMove, mv.From, mv.To)
	}
	pc := g.Board.Squares[mv.From]
	if pc == 0 || pc.Side() != g.SideToMove {
		return fmt.Errorf("%w: no %s piece on %d", ErrBadMove, g.SideToMove, mv.From)
	}
	if dst := g.Board.Squares[mv.To]; dst != 0 && dst.Side() == g.SideToMove {
		return fmt.Errorf("%w: %d is occupied by own piece", ErrBadMove, mv.To)
	}
	return nil
}

func (m *Manager) save(g *GameState) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.SaveGame(g); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFail, err)
	}
	return nil
}
