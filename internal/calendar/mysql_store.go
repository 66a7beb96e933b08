package calendar

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	xerrors "AmplyBrain/internal/errors"
)

// MySQLConfig 描述 MySQL 日历存储的连接参数。
// DSN 必须带 parseTime=true，否则时间列无法扫描为 time.Time。
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore 将日历数据持久化到 MySQL。
type MySQLStore struct {
	db *sql.DB
}

const calendarSchema = `
CREATE TABLE IF NOT EXISTS calendar_events (
    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    owner      VARCHAR(128) NOT NULL,
    title      VARCHAR(255) NOT NULL,
    start_at   DATETIME     NOT NULL,
    end_at     DATETIME     NOT NULL,
    location   VARCHAR(255) NOT NULL DEFAULT '',
    notes      TEXT,
    created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_events_owner_start (owner, start_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS calendar_reminders (
    id        VARCHAR(64)  NOT NULL PRIMARY KEY,
    event_id  VARCHAR(64)  NOT NULL,
    owner     VARCHAR(128) NOT NULL,
    remind_at DATETIME     NOT NULL,
    sent      TINYINT(1)   NOT NULL DEFAULT 0,
    KEY idx_reminders_due (sent, remind_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS calendar_notifications (
    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    owner      VARCHAR(128) NOT NULL,
    title      VARCHAR(255) NOT NULL,
    body       TEXT,
    created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// NewMySQLStore 创建并初始化 MySQL 日历存储。
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
	// MySQL 驱动默认不支持多语句，逐条建表。
	for _, stmt := range strings.Split(calendarSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化日历表失败")
		}
	}
	return &MySQLStore{db: db}, nil
}

// CreateEvent 实现 Store 接口。
func (s *MySQLStore) CreateEvent(ctx context.Context, event Event) (Event, error) {
	if strings.TrimSpace(event.Title) == "" {
		return Event{}, xerrors.New(xerrors.CodeInvalidArgument, "事件标题不能为空")
	}
	if event.ID == "" {
		event.ID = "evt_" + uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const insert = `
INSERT INTO calendar_events (id, owner, title, start_at, end_at, location, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	if _, err := s.db.ExecContext(ctx, insert,
		event.ID, event.Owner, event.Title, event.StartAt, event.EndAt,
		event.Location, event.Notes, event.CreatedAt,
	); err != nil {
		return Event{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入事件失败")
	}
	return event, nil
}

// GetEvent 实现 Store 接口。
func (s *MySQLStore) GetEvent(ctx context.Context, id string) (Event, bool, error) {
	const query = `
SELECT id, owner, title, start_at, end_at, location, COALESCE(notes, ''), created_at
FROM calendar_events WHERE id = ?
`
	var event Event
	row := s.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&event.ID, &event.Owner, &event.Title, &event.StartAt,
		&event.EndAt, &event.Location, &event.Notes, &event.CreatedAt)
	if err == sql.ErrNoRows {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取事件失败")
	}
	return event, true, nil
}

// ListEvents 实现 Store 接口。
func (s *MySQLStore) ListEvents(ctx context.Context, owner string, from, to time.Time) ([]Event, error) {
	var (
		conditions []string
		args       []any
	)
	if owner != "" {
		conditions = append(conditions, "owner = ?")
		args = append(args, owner)
	}
	if !from.IsZero() {
		conditions = append(conditions, "start_at >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conditions = append(conditions, "start_at <= ?")
		args = append(args, to)
	}

	query := "SELECT id, owner, title, start_at, end_at, location, COALESCE(notes, ''), created_at FROM calendar_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询事件失败")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.Owner, &event.Title, &event.StartAt,
			&event.EndAt, &event.Location, &event.Notes, &event.CreatedAt); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取事件行失败")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历事件行失败")
	}
	return events, nil
}

// CreateReminder 实现 Store 接口。
func (s *MySQLStore) CreateReminder(ctx context.Context, reminder Reminder) (Reminder, error) {
	if reminder.EventID == "" {
		return Reminder{}, xerrors.New(xerrors.CodeInvalidArgument, "提醒必须绑定事件")
	}
	if reminder.ID == "" {
		reminder.ID = "rem_" + uuid.NewString()
	}
	const insert = `
INSERT INTO calendar_reminders (id, event_id, owner, remind_at, sent)
VALUES (?, ?, ?, ?, ?)
`
	if _, err := s.db.ExecContext(ctx, insert,
		reminder.ID, reminder.EventID, reminder.Owner, reminder.RemindAt, reminder.Sent,
	); err != nil {
		return Reminder{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入提醒失败")
	}
	return reminder, nil
}

// DueReminders 实现 Store 接口。
func (s *MySQLStore) DueReminders(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, event_id, owner, remind_at, sent
FROM calendar_reminders
WHERE sent = 0 AND remind_at <= ?
ORDER BY remind_at ASC LIMIT ?
`
	rows, err := s.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询到期提醒失败")
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var reminder Reminder
		if err := rows.Scan(&reminder.ID, &reminder.EventID, &reminder.Owner,
			&reminder.RemindAt, &reminder.Sent); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取提醒行失败")
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历提醒行失败")
	}
	return reminders, nil
}

// MarkReminderSent 实现 Store 接口。
func (s *MySQLStore) MarkReminderSent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE calendar_reminders SET sent = 1 WHERE id = ?", id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新提醒状态失败")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return xerrors.New(xerrors.CodeNotFound, "提醒不存在: "+id)
	}
	return nil
}

// CreateNotification 实现 Store 接口。
func (s *MySQLStore) CreateNotification(ctx context.Context, notification Notification) (Notification, error) {
	if notification.ID == "" {
		notification.ID = "ntf_" + uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const insert = `
INSERT INTO calendar_notifications (id, owner, title, body, created_at)
VALUES (?, ?, ?, ?, ?)
`
	if _, err := s.db.ExecContext(ctx, insert,
		notification.ID, notification.Owner, notification.Title, notification.Body, notification.CreatedAt,
	); err != nil {
		return Notification{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入通知失败")
	}
	return notification, nil
}

// Close 实现 Store 接口。
func (s *MySQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
