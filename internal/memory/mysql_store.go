package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	xerrors "AmplyBrain/internal/errors"
)

// MySQLConfig 描述 MySQL 记忆存储的连接参数。
// DSN 必须带 parseTime=true，否则 updated_at 无法扫描为 time.Time。
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore 将记忆条目持久化到 MySQL。
type MySQLStore struct {
	db *sql.DB
}

const memorySchema = `
CREATE TABLE IF NOT EXISTS memory_items (
    id          VARCHAR(64)  NOT NULL,
    owner       VARCHAR(128) NOT NULL,
    type        VARCHAR(32)  NOT NULL,
    mem_key     VARCHAR(191) NOT NULL,
    mem_value   TEXT         NOT NULL,
    confidence  DOUBLE       NOT NULL DEFAULT 0.7,
    updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (owner, type, mem_key),
    UNIQUE KEY uk_memory_id (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// NewMySQLStore 创建并初始化 MySQL 记忆存储。
func NewMySQLStore(ctx context.Context, cfg MySQLConfig) (*MySQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(20)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(10)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}
	if _, err := db.ExecContext(ctx, memorySchema); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化记忆表失败")
	}
	return &MySQLStore{db: db}, nil
}

// GetRelevant 实现 Store 接口。
func (s *MySQLStore) GetRelevant(ctx context.Context, query Query) ([]Item, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	var (
		conditions []string
		args       []any
	)
	if query.Owner != "" {
		conditions = append(conditions, "owner = ?")
		args = append(args, query.Owner)
	}
	if len(query.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.Types)), ",")
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", placeholders))
		for _, t := range query.Types {
			args = append(args, string(t))
		}
	}
	if len(query.Keys) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.Keys)), ",")
		conditions = append(conditions, fmt.Sprintf("mem_key IN (%s)", placeholders))
		for _, k := range query.Keys {
			args = append(args, k)
		}
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		conditions = append(conditions, "(mem_key LIKE ? OR mem_value LIKE ?)")
		pattern := "%" + text + "%"
		args = append(args, pattern, pattern)
	}

	sqlQuery := "SELECT id, owner, type, mem_key, mem_value, confidence, updated_at FROM memory_items"
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY confidence DESC, updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询记忆失败")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var typ string
		if err := rows.Scan(&item.ID, &item.Owner, &typ, &item.Key, &item.Value, &item.Confidence, &item.UpdatedAt); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取记忆行失败")
		}
		item.Type = Type(typ)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历记忆行失败")
	}
	return items, nil
}

// Upsert 实现 Store 接口，使用 ON DUPLICATE KEY UPDATE 保证
// (owner, type, key) 维度的幂等覆盖。
func (s *MySQLStore) Upsert(ctx context.Context, write Write) (Item, error) {
	if strings.TrimSpace(write.Key) == "" {
		return Item{}, xerrors.New(xerrors.CodeInvalidArgument, "记忆 key 不能为空")
	}
	confidence := write.Confidence
	if confidence <= 0 {
		confidence = defaultConfidence
	}
	id := "mem_" + uuid.NewString()

	const upsert = `
INSERT INTO memory_items (id, owner, type, mem_key, mem_value, confidence)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE mem_value = VALUES(mem_value), confidence = VALUES(confidence)
`
	if _, err := s.db.ExecContext(ctx, upsert, id, write.Owner, string(write.Type), write.Key, write.Value, confidence); err != nil {
		return Item{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入记忆失败")
	}

	const fetch = `
SELECT id, owner, type, mem_key, mem_value, confidence, updated_at
FROM memory_items WHERE owner = ? AND type = ? AND mem_key = ?
`
	var item Item
	var typ string
	row := s.db.QueryRowContext(ctx, fetch, write.Owner, string(write.Type), write.Key)
	if err := row.Scan(&item.ID, &item.Owner, &typ, &item.Key, &item.Value, &item.Confidence, &item.UpdatedAt); err != nil {
		return Item{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "回读记忆失败")
	}
	item.Type = Type(typ)
	return item, nil
}

// BulkUpsert 实现 Store 接口。
func (s *MySQLStore) BulkUpsert(ctx context.Context, writes []Write) ([]Item, error) {
	items := make([]Item, 0, len(writes))
	for _, write := range writes {
		item, err := s.Upsert(ctx, write)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Close 实现 Store 接口。
func (s *MySQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
