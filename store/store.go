// Package store 提供 core.Store / core.KeyValueStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var kv core.KeyValueStore = NewMemoryStore()
//	kv, err := Open("sqlite:///data/artifacts.db")
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/diffkit/core"
)

// Open 按 URI 打开存储后端：
//   - memory://                    进程内存
//   - redis://host:port[/db]       Redis
//   - sqlite:///path/to/file.db    SQLite 单文件
//   - 其他无 scheme 的路径视为 SQLite 文件
func Open(uri string) (core.KeyValueStore, error) {
	switch {
	case uri == "" || strings.HasPrefix(uri, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(uri, "redis://"):
		addr, db, err := parseRedisURI(uri)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(addr, db)
	case strings.HasPrefix(uri, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(uri, "sqlite://"))
	case strings.Contains(uri, "://"):
		return nil, core.ErrStoreNotSupported.Wrap(uri, nil)
	default:
		return NewSQLiteStore(uri)
	}
}

func parseRedisURI(uri string) (string, int, error) {
	rest := strings.TrimPrefix(uri, "redis://")
	addr, dbPart, hasDB := strings.Cut(rest, "/")
	if addr == "" {
		return "", 0, fmt.Errorf("store: empty redis address in %q", uri)
	}
	if !hasDB || dbPart == "" {
		return addr, 0, nil
	}
	db, err := strconv.Atoi(dbPart)
	if err != nil {
		return "", 0, fmt.Errorf("store: invalid redis db %q: %w", dbPart, err)
	}
	return addr, db, nil
}
