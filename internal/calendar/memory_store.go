package calendar

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	xerrors "AmplyBrain/internal/errors"
)

// MemoryStore 以内存方式保存日历数据，用于测试与默认部署。
type MemoryStore struct {
	mu            sync.RWMutex
	events        map[string]Event
	reminders     map[string]Reminder
	notifications []Notification
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    make(map[string]Event),
		reminders: make(map[string]Reminder),
	}
}

// CreateEvent 实现 Store 接口。ID 为空时自动生成。
func (m *MemoryStore) CreateEvent(_ context.Context, event Event) (Event, error) {
	if strings.TrimSpace(event.Title) == "" {
		return Event{}, xerrors.New(xerrors.CodeInvalidArgument, "事件标题不能为空")
	}
	if event.ID == "" {
		event.ID = "evt_" + uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return event, nil
}

// GetEvent 实现 Store 接口。
func (m *MemoryStore) GetEvent(_ context.Context, id string) (Event, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[id]
	return event, ok, nil
}

// ListEvents 实现 Store 接口，按开始时间升序返回区间内的事件。
func (m *MemoryStore) ListEvents(_ context.Context, owner string, from, to time.Time) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []Event
	for _, event := range m.events {
		if owner != "" && event.Owner != owner {
			continue
		}
		if !from.IsZero() && event.StartAt.Before(from) {
			continue
		}
		if !to.IsZero() && event.StartAt.After(to) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartAt.Before(events[j].StartAt)
	})
	return events, nil
}

// CreateReminder 实现 Store 接口。
func (m *MemoryStore) CreateReminder(_ context.Context, reminder Reminder) (Reminder, error) {
	if reminder.EventID == "" {
		return Reminder{}, xerrors.New(xerrors.CodeInvalidArgument, "提醒必须绑定事件")
	}
	if reminder.ID == "" {
		reminder.ID = "rem_" + uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[reminder.ID] = reminder
	return reminder, nil
}

// DueReminders 实现 Store 接口。
func (m *MemoryStore) DueReminders(_ context.Context, now time.Time, limit int) ([]Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []Reminder
	for _, reminder := range m.reminders {
		if reminder.Sent || reminder.RemindAt.After(now) {
			continue
		}
		due = append(due, reminder)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].RemindAt.Before(due[j].RemindAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// MarkReminderSent 实现 Store 接口。
func (m *MemoryStore) MarkReminderSent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reminder, ok := m.reminders[id]
	if !ok {
		return xerrors.New(xerrors.CodeNotFound, "提醒不存在: "+id)
	}
	reminder.Sent = true
	m.reminders[id] = reminder
	return nil
}

// CreateNotification 实现 Store 接口。
func (m *MemoryStore) CreateNotification(_ context.Context, notification Notification) (Notification, error) {
	if notification.ID == "" {
		notification.ID = "ntf_" + uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notification)
	return notification, nil
}

// Notifications 返回已创建通知的快照，测试用。
func (m *MemoryStore) Notifications() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// Close 实现 Store 接口。
func (m *MemoryStore) Close() error { return nil }
