package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	xerrors "AmplyBrain/internal/errors"
)

// Type 表示记忆条目的类别。
type Type string

const (
	TypeGoal         Type = "goal"
	TypePreference   Type = "preference"
	TypeFact         Type = "fact"
	TypeRecentAction Type = "recent_action"
)

// Item 是一条按 (owner, type, key) 定位的记忆，带置信度评分。
type Item struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Write 描述一次记忆写入。Confidence 为 0 时取默认值。
type Write struct {
	Owner      string  `json:"owner"`
	Type       Type    `json:"type"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Query 描述一次相关性检索。
type Query struct {
	Owner string   `json:"owner"`
	Types []Type   `json:"types,omitempty"`
	Keys  []string `json:"keys,omitempty"`
	Text  string   `json:"text,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

// defaultConfidence 是未指定置信度时的默认值。
const defaultConfidence = 0.7

// Store 抽象了记忆的读写接口。核心的正确性不依赖它，编排器只在
// 配置了实现时才做个性化。
type Store interface {
	GetRelevant(ctx context.Context, query Query) ([]Item, error)
	Upsert(ctx context.Context, write Write) (Item, error)
	BulkUpsert(ctx context.Context, writes []Write) ([]Item, error)
	Close() error
}

// MemoryStore 以内存方式保存记忆条目，主要用于测试与默认部署。
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetRelevant 实现 Store 接口。结果按置信度降序、更新时间降序排列。
func (m *MemoryStore) GetRelevant(_ context.Context, query Query) ([]Item, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	text := strings.ToLower(strings.TrimSpace(query.Text))

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		if query.Owner != "" && item.Owner != query.Owner {
			continue
		}
		if len(query.Types) > 0 && !containsType(query.Types, item.Type) {
			continue
		}
		if len(query.Keys) > 0 && !containsString(query.Keys, item.Key) {
			continue
		}
		if text != "" {
			hay := strings.ToLower(item.Key + " " + item.Value)
			if !strings.Contains(hay, text) {
				continue
			}
		}
		matched = append(matched, item)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Confidence != matched[j].Confidence {
			return matched[i].Confidence > matched[j].Confidence
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Upsert 实现 Store 接口。同一 (owner, type, key) 的写入覆盖旧值。
func (m *MemoryStore) Upsert(_ context.Context, write Write) (Item, error) {
	if strings.TrimSpace(write.Key) == "" {
		return Item{}, xerrors.New(xerrors.CodeInvalidArgument, "记忆 key 不能为空")
	}
	confidence := write.Confidence
	if confidence <= 0 {
		confidence = defaultConfidence
	}
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		item := &m.items[i]
		if item.Owner == write.Owner && item.Type == write.Type && item.Key == write.Key {
			item.Value = write.Value
			item.Confidence = confidence
			item.UpdatedAt = now
			return *item, nil
		}
	}

	item := Item{
		ID:         "mem_" + uuid.NewString(),
		Owner:      write.Owner,
		Type:       write.Type,
		Key:        write.Key,
		Value:      write.Value,
		Confidence: confidence,
		UpdatedAt:  now,
	}
	m.items = append([]Item{item}, m.items...)
	return item, nil
}

// BulkUpsert 实现 Store 接口。
func (m *MemoryStore) BulkUpsert(ctx context.Context, writes []Write) ([]Item, error) {
	items := make([]Item, 0, len(writes))
	for _, write := range writes {
		item, err := m.Upsert(ctx, write)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Close 实现 Store 接口。
func (m *MemoryStore) Close() error { return nil }

func containsType(list []Type, target Type) bool {
	for _, t := range list {
		if t == target {
			return true
		}
	}
	return false
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
