package action

import (
	"encoding/json"
	"fmt"
)

// Payload 是按动作类型封闭的载荷联合。每个 Kind 恰好对应一个变体，
// 集成相关的附加字段统一放进 Meta。
type Payload interface {
	payloadKind() Kind
}

// FocusMode 表示专注块的运行模式。
type FocusMode string

const (
	FocusModePomodoro FocusMode = "pomodoro"
	FocusModeDeep     FocusMode = "deep"
	FocusModeSprint   FocusMode = "sprint"
)

// View 表示界面可导航的固定视图集合。
type View string

const (
	ViewChat     View = "chat"
	ViewPlan     View = "plan"
	ViewWorkout  View = "workout"
	ViewSummary  View = "summary"
	ViewFocus    View = "focus"
	ViewTimeline View = "timeline"
	ViewSettings View = "settings"
)

// FocusBlockPayload 对应 start_focus_block。
type FocusBlockPayload struct {
	Title       string         `json:"title"`
	DurationMin int            `json:"durationMin"`
	BreakMin    int            `json:"breakMin,omitempty"`
	Mode        FocusMode      `json:"mode,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// EndFocusBlockPayload 对应 end_focus_block。
type EndFocusBlockPayload struct {
	FocusBlockID string         `json:"focusBlockId,omitempty"`
	Outcome      string         `json:"outcome,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

// ChecklistItem 是清单中的一项。
type ChecklistItem struct {
	Text        string `json:"text"`
	Done        bool   `json:"done,omitempty"`
	EstimateMin int    `json:"estimateMin,omitempty"`
}

// ChecklistPayload 对应 create_checklist。
type ChecklistPayload struct {
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
	Meta  map[string]any  `json:"meta,omitempty"`
}

// CreateTaskPayload 对应 create_task。
type CreateTaskPayload struct {
	Title       string         `json:"title"`
	DueAt       string         `json:"dueAt,omitempty"`
	EstimateMin int            `json:"estimateMin,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// CompleteTaskPayload 对应 complete_task。
type CompleteTaskPayload struct {
	TaskID string         `json:"taskId"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// OpenViewPayload 对应 open_view。
type OpenViewPayload struct {
	View   View              `json:"view"`
	Params map[string]string `json:"params,omitempty"`
	Meta   map[string]any    `json:"meta,omitempty"`
}

// SetGoalPayload 对应 set_goal，写入大脑记忆。
type SetGoalPayload struct {
	Key   string         `json:"key"`
	Value string         `json:"value"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// SetPreferencePayload 对应 set_preference。
type SetPreferencePayload struct {
	Key   string         `json:"key"`
	Value string         `json:"value"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// LogEventPayload 对应 log_event，记录内部时间线事件。
type LogEventPayload struct {
	Event      string         `json:"event"`
	Title      string         `json:"title"`
	Details    map[string]any `json:"details,omitempty"`
	HappenedAt string         `json:"happenedAt,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// WorkoutLogPayload 对应 log_workout。
type WorkoutLogPayload struct {
	WorkoutID   string         `json:"workoutId,omitempty"`
	Title       string         `json:"title"`
	DurationMin int            `json:"durationMin,omitempty"`
	RPE         int            `json:"rpe,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// AdjustWorkoutPayload 对应 adjust_workout。
type AdjustWorkoutPayload struct {
	WorkoutID   string         `json:"workoutId,omitempty"`
	Intensity   string         `json:"intensity,omitempty"`
	Focus       []string       `json:"focus,omitempty"`
	Constraints []string       `json:"constraints,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ScheduleEventPayload 对应 schedule_event。
type ScheduleEventPayload struct {
	Title       string         `json:"title"`
	StartAt     string         `json:"startAt"`
	EndAt       string         `json:"endAt"`
	Location    string         `json:"location,omitempty"`
	Description string         `json:"description,omitempty"`
	Attendees   []string       `json:"attendees,omitempty"`
	Provider    string         `json:"calendarProvider,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// UpdateEventPayload 对应 update_event。
type UpdateEventPayload struct {
	EventID  string         `json:"eventId"`
	Provider string         `json:"calendarProvider,omitempty"`
	Patch    map[string]any `json:"patch"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// CancelEventPayload 对应 cancel_event。
type CancelEventPayload struct {
	EventID  string         `json:"eventId"`
	Provider string         `json:"calendarProvider,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// DraftEmailPayload 对应 draft_email。
type DraftEmailPayload struct {
	To       []string       `json:"to"`
	CC       []string       `json:"cc,omitempty"`
	BCC      []string       `json:"bcc,omitempty"`
	Subject  string         `json:"subject"`
	BodyText string         `json:"bodyText"`
	BodyHTML string         `json:"bodyHtml,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// SendEmailPayload 对应 send_email。
type SendEmailPayload struct {
	To       []string       `json:"to"`
	CC       []string       `json:"cc,omitempty"`
	BCC      []string       `json:"bcc,omitempty"`
	Subject  string         `json:"subject"`
	BodyText string         `json:"bodyText"`
	BodyHTML string         `json:"bodyHtml,omitempty"`
	Provider string         `json:"provider,omitempty"`
	DraftID  string         `json:"draftId,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// TriggerWebhookPayload 对应 trigger_webhook。
type TriggerWebhookPayload struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
	Meta    map[string]any    `json:"meta,omitempty"`
}

// RunAutomationPayload 对应 run_automation。
type RunAutomationPayload struct {
	Provider   string         `json:"provider"`
	WorkflowID string         `json:"workflowId,omitempty"`
	Name       string         `json:"name,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// GenericPayload 承载未知 kind 的原始字段，仅用于让安全执行包装器
// 能够对未注册的类型返回 NO_EXECUTOR，而不是在解码阶段拒绝。
type GenericPayload map[string]any

func (FocusBlockPayload) payloadKind() Kind     { return KindStartFocusBlock }
func (EndFocusBlockPayload) payloadKind() Kind  { return KindEndFocusBlock }
func (ChecklistPayload) payloadKind() Kind      { return KindCreateChecklist }
func (CreateTaskPayload) payloadKind() Kind     { return KindCreateTask }
func (CompleteTaskPayload) payloadKind() Kind   { return KindCompleteTask }
func (OpenViewPayload) payloadKind() Kind       { return KindOpenView }
func (SetGoalPayload) payloadKind() Kind        { return KindSetGoal }
func (SetPreferencePayload) payloadKind() Kind  { return KindSetPreference }
func (LogEventPayload) payloadKind() Kind       { return KindLogEvent }
func (WorkoutLogPayload) payloadKind() Kind     { return KindLogWorkout }
func (AdjustWorkoutPayload) payloadKind() Kind  { return KindAdjustWorkout }
func (ScheduleEventPayload) payloadKind() Kind  { return KindScheduleEvent }
func (UpdateEventPayload) payloadKind() Kind    { return KindUpdateEvent }
func (CancelEventPayload) payloadKind() Kind    { return KindCancelEvent }
func (DraftEmailPayload) payloadKind() Kind     { return KindDraftEmail }
func (SendEmailPayload) payloadKind() Kind      { return KindSendEmail }
func (TriggerWebhookPayload) payloadKind() Kind { return KindTriggerWebhook }
func (RunAutomationPayload) payloadKind() Kind  { return KindRunAutomation }
func (GenericPayload) payloadKind() Kind        { return "" }

// decodePayload 按 kind 选择变体解码。未知 kind 不视为解码错误。
func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	unmarshal := func(p Payload) (Payload, error) {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("解码 %s payload 失败: %w", kind, err)
		}
		return p, nil
	}
	switch kind {
	case KindStartFocusBlock:
		p := &FocusBlockPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindEndFocusBlock:
		p := &EndFocusBlockPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindCreateChecklist:
		p := &ChecklistPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindCreateTask:
		p := &CreateTaskPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindCompleteTask:
		p := &CompleteTaskPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindOpenView:
		p := &OpenViewPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindSetGoal:
		p := &SetGoalPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindSetPreference:
		p := &SetPreferencePayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindLogEvent:
		p := &LogEventPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindLogWorkout:
		p := &WorkoutLogPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindAdjustWorkout:
		p := &AdjustWorkoutPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindScheduleEvent:
		p := &ScheduleEventPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindUpdateEvent:
		p := &UpdateEventPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindCancelEvent:
		p := &CancelEventPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindDraftEmail:
		p := &DraftEmailPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindSendEmail:
		p := &SendEmailPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindTriggerWebhook:
		p := &TriggerWebhookPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	case KindRunAutomation:
		p := &RunAutomationPayload{}
		if _, err := unmarshal(p); err != nil {
			return nil, err
		}
		return *p, nil
	default:
		var generic GenericPayload
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("解码未知 payload 失败: %w", err)
		}
		return generic, nil
	}
}
