package calendar

import (
	"context"
	"log/slog"
	"time"

	"AmplyBrain/pkg/logger"
)

// ScanResult 汇总一次提醒扫描的结果。
type ScanResult struct {
	Ran     int `json:"ran"`
	Created int `json:"created"`
}

// Scanner 周期性把到期提醒转换成通知。
type Scanner struct {
	store Store
	limit int
	log   *slog.Logger
}

// NewScanner 创建扫描器。limit <= 0 时默认 20，上限 200。
func NewScanner(store Store, limit int) *Scanner {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	return &Scanner{store: store, limit: limit, log: logger.Named("calendar")}
}

// Run 执行一次扫描。提醒对应的事件缺失时只标记已发送不产生通知，
// 避免孤儿提醒被反复扫描。
func (s *Scanner) Run(ctx context.Context, now time.Time) (ScanResult, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	due, err := s.store.DueReminders(ctx, now, s.limit)
	if err != nil {
		return ScanResult{}, err
	}

	result := ScanResult{Ran: len(due)}
	for _, reminder := range due {
		event, ok, err := s.store.GetEvent(ctx, reminder.EventID)
		if err != nil {
			return result, err
		}
		if !ok {
			s.log.Warn("提醒指向的事件不存在",
				slog.String("reminder", reminder.ID),
				slog.String("event", reminder.EventID),
			)
			if err := s.store.MarkReminderSent(ctx, reminder.ID); err != nil {
				return result, err
			}
			continue
		}

		notification := Notification{
			Owner:     reminder.Owner,
			Title:     "Reminder: " + event.Title,
			Body:      event.Notes,
			CreatedAt: now,
		}
		if _, err := s.store.CreateNotification(ctx, notification); err != nil {
			return result, err
		}
		if err := s.store.MarkReminderSent(ctx, reminder.ID); err != nil {
			return result, err
		}
		result.Created++
	}

	s.log.Info("提醒扫描完成",
		slog.Int("ran", result.Ran),
		slog.Int("created", result.Created),
	)
	return result, nil
}
