package action

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	xerrors "AmplyBrain/internal/errors"
)

// Kind 表示动作类型，是一个封闭集合。新增 Kind 必须同时补充
// 对应的 payload 变体，并最终注册执行器。
type Kind string

const (
	// 内部核心动作
	KindStartFocusBlock Kind = "start_focus_block"
	KindEndFocusBlock   Kind = "end_focus_block"
	KindCreateChecklist Kind = "create_checklist"
	KindCreateTask      Kind = "create_task"
	KindCompleteTask    Kind = "complete_task"
	KindOpenView        Kind = "open_view"
	KindSetGoal         Kind = "set_goal"
	KindSetPreference   Kind = "set_preference"
	KindLogEvent        Kind = "log_event"
	// 训练
	KindLogWorkout    Kind = "log_workout"
	KindAdjustWorkout Kind = "adjust_workout"
	// 日历与邮件（外部执行器）
	KindScheduleEvent Kind = "schedule_event"
	KindUpdateEvent   Kind = "update_event"
	KindCancelEvent   Kind = "cancel_event"
	KindDraftEmail    Kind = "draft_email"
	KindSendEmail     Kind = "send_email"
	// 自动化桥接
	KindTriggerWebhook Kind = "trigger_webhook"
	KindRunAutomation  Kind = "run_automation"
)

// Priority 表示动作在界面上的优先级。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Trust 表示动作的信任级别：auto 可无人值守执行，confirm 需要用户确认。
type Trust string

const (
	TrustConfirm Trust = "confirm"
	TrustAuto    Trust = "auto"
)

// Action 是助手大脑产出的一个类型化动作。
type Action struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Priority  Priority `json:"priority,omitempty"`
	Trust     Trust    `json:"trust,omitempty"`
	Label     string   `json:"label"`
	Reason    string   `json:"reason,omitempty"`
	Payload   Payload  `json:"payload"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// ResultError 描述一次执行失败的错误信息。
type ResultError struct {
	Code   xerrors.Code `json:"code"`
	Detail string       `json:"detail,omitempty"`
}

// Result 是每次执行必须产出的统一结果，即使执行器崩溃也不例外。
type Result struct {
	OK         bool         `json:"ok"`
	ActionID   string       `json:"actionId"`
	Kind       Kind         `json:"kind"`
	Message    string       `json:"message,omitempty"`
	Data       any          `json:"data,omitempty"`
	Error      *ResultError `json:"error,omitempty"`
	ExecutedAt string       `json:"executedAt"`
}

// ExecContext 是传递给执行器的执行上下文。Now 为空时由安全执行
// 包装器补齐。
type ExecContext struct {
	UserID string
	Now    time.Time
	Meta   map[string]any
}

// NowISO 返回上下文时间戳的 ISO-8601 表示。
func (c ExecContext) NowISO() string {
	if c.Now.IsZero() {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return c.Now.UTC().Format(time.RFC3339)
}

// NewID 生成全局唯一且不复用的动作 ID。
func NewID(prefix string) string {
	if prefix == "" {
		prefix = "act"
	}
	return prefix + "_" + uuid.NewString()
}

// NowISO 返回当前时间的 ISO-8601 表示。
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// IsValidKind 检查给定的动作类型是否属于封闭集合。
func IsValidKind(kind Kind) bool {
	switch kind {
	case KindStartFocusBlock, KindEndFocusBlock, KindCreateChecklist,
		KindCreateTask, KindCompleteTask, KindOpenView, KindSetGoal,
		KindSetPreference, KindLogEvent, KindLogWorkout, KindAdjustWorkout,
		KindScheduleEvent, KindUpdateEvent, KindCancelEvent,
		KindDraftEmail, KindSendEmail, KindTriggerWebhook, KindRunAutomation:
		return true
	default:
		return false
	}
}

// UnmarshalJSON 按 kind 解码 payload，保证变体与类型一一对应。
func (a *Action) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID        string          `json:"id"`
		Kind      Kind            `json:"kind"`
		Priority  Priority        `json:"priority"`
		Trust     Trust           `json:"trust"`
		Label     string          `json:"label"`
		Reason    string          `json:"reason"`
		Payload   json.RawMessage `json:"payload"`
		CreatedAt string          `json:"createdAt"`
	}
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := decodePayload(raw.Kind, raw.Payload)
	if err != nil {
		return err
	}
	a.ID = raw.ID
	a.Kind = raw.Kind
	a.Priority = raw.Priority
	a.Trust = raw.Trust
	a.Label = raw.Label
	a.Reason = raw.Reason
	a.Payload = payload
	a.CreatedAt = raw.CreatedAt
	return nil
}
