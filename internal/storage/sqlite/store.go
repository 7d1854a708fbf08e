// Package sqlite SQLite 用户记录存储
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/palemoky/werewolf/internal/storage"
)

const timeFormat = time.RFC3339Nano

//go:embed schema.sql
var schema string

// Store SQLite 用户存储
type Store struct {
	sqlDB *sql.DB
}

// Open 打开（必要时创建）path 处的数据库
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertUser 创建或更新用户名，首次出现时间保持不变
func (s *Store) UpsertUser(ctx context.Context, id, displayName string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("user id is required")
	}
	now := time.Now().UTC().Format(timeFormat)

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO users (id, username, first_seen, last_seen) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, last_seen = excluded.last_seen`,
		id, displayName, now, now)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", id, err)
	}
	return nil
}

// GetUser 读取用户记录，不存在时返回 nil
func (s *Store) GetUser(ctx context.Context, id string) (*storage.User, error) {
	var u storage.User
	var firstSeen, lastSeen string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, first_seen, last_seen FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &firstSeen, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	u.FirstSeen, _ = time.Parse(timeFormat, firstSeen)
	u.LastSeen, _ = time.Parse(timeFormat, lastSeen)
	return &u, nil
}

// CountUsers 用户总数
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
