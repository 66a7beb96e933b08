package calendar

import (
	"context"
	"time"
)

// Event 是一条日历事件。
type Event struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reminder 绑定在某个事件上，到点后由扫描器转换为通知。
type Reminder struct {
	ID       string    `json:"id"`
	EventID  string    `json:"eventId"`
	Owner    string    `json:"owner"`
	RemindAt time.Time `json:"remindAt"`
	Sent     bool      `json:"sent"`
}

// Notification 是扫描器为到期提醒创建的待投递通知。
type Notification struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store 抽象了日历数据的持久化接口。
type Store interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, bool, error)
	ListEvents(ctx context.Context, owner string, from, to time.Time) ([]Event, error)
	CreateReminder(ctx context.Context, reminder Reminder) (Reminder, error)
	// DueReminders 返回 remindAt <= now 且未发送的提醒，按 remindAt 升序。
	DueReminders(ctx context.Context, now time.Time, limit int) ([]Reminder, error)
	MarkReminderSent(ctx context.Context, id string) error
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	Close() error
}
