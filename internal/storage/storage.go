package storage

import (
	"encoding/json"
	"errors"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"xqbridge/internal/server/game"
)

// 键前缀
const (
	gamePrefix = "game/"
)

func gameKey(id string) []byte { return []byte(gamePrefix + id) }

// Storage 用 BadgerDB 持久化对局
type Storage struct {
	db *badger.DB
}

// Open 打开（或新建）dir 下的数据库。
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // 关掉 badger 自己的日志
	return open(opts)
}

// OpenInMemory 纯内存模式，测试和不落盘的宿主使用。
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close 关闭数据库
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame 实现 game.Store。
func (s *Storage) SaveGame(g *game.GameState) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(g.ID), data)
	})
}

// LoadGame 实现 game.Store；不存在时返回 game.ErrNotFound。
func (s *Storage) LoadGame(id string) (*game.GameState, error) {
	g := &game.GameState{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return game.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, g)
		})
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGame 删除对局；删除不存在的对局不算错误。
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(gameKey(id))
	})
}

// ListGames 返回所有对局 ID，最近更新的在前。
func (s *Storage) ListGames() ([]string, error) {
	type entry struct {
		id string
		g  game.GameState
	}
	var entries []entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var e entry
			e.id = string(item.Key()[len(gamePrefix):])
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e.g)
			}); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].g.UpdatedAt.After(entries[j].g.UpdatedAt)
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}
