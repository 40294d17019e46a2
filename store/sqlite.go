package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rushteam/diffkit/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore 是 SQLite 单文件实现的 KeyValueStore。
// 适合单机命令行运行：词典、特征元数据、模型快照都落在同一个 .db 文件里。
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开或创建 path 指向的数据库；path 为 ":memory:" 时使用内存库。
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite 不支持并发写
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expire_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS hash (
			key TEXT NOT NULL,
			field TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (key, field)
		);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expire_at IS NULL OR expire_at > ?)`,
		key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, expire_at) VALUES (?, ?, ?)`,
		key, value, expireUnix(ttl))
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hash WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting hash %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, err := s.Get(ctx, k)
		if core.IsStoreNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

func (s *SQLiteStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO kv (key, value, expire_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	exp := expireUnix(ttl)
	for k, v := range kvs {
		if _, err := stmt.ExecContext(ctx, k, v, exp); err != nil {
			return fmt.Errorf("writing key %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM hash WHERE key = ? AND field = ?`, key, field).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying hash %s/%s: %w", key, field, err)
	}
	return value, nil
}

func (s *SQLiteStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return s.HMSet(ctx, key, map[string][]byte{field: value})
}

func (s *SQLiteStore) HMSet(ctx context.Context, key string, fields map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO hash (key, field, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for f, v := range fields {
		if _, err := stmt.ExecContext(ctx, key, f, v); err != nil {
			return fmt.Errorf("writing hash %s/%s: %w", key, f, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM hash WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("querying hash %s: %w", key, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var field string
		var value []byte
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		result[field] = value
	}
	return result, rows.Err()
}

func (s *SQLiteStore) RenameHash(ctx context.Context, src, dst string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM hash WHERE key = ?`, src).Scan(&n); err != nil {
		return fmt.Errorf("querying hash %s: %w", src, err)
	}
	if n == 0 {
		return core.ErrStoreNotFound.Wrap(src, nil)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hash WHERE key = ?`, dst); err != nil {
		return fmt.Errorf("deleting hash %s: %w", dst, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE hash SET key = ? WHERE key = ?`, dst, src); err != nil {
		return fmt.Errorf("renaming hash %s to %s: %w", src, dst, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expireUnix(ttl []int) interface{} {
	if len(ttl) == 0 || ttl[0] <= 0 {
		return nil
	}
	return time.Now().Add(time.Duration(ttl[0]) * time.Second).Unix()
}

var _ core.KeyValueStore = (*SQLiteStore)(nil)
