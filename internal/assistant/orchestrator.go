package assistant

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"AmplyBrain/internal/action"
	"AmplyBrain/internal/memory"
	"AmplyBrain/pkg/logger"
)

// Request 是一次助手调用的输入。
type Request struct {
	Message string `json:"message"`
	Mode    string `json:"mode,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// ToolCall 记录一次引擎调用的追踪信息。
type ToolCall struct {
	Tool   string       `json:"tool"`
	Engine Engine       `json:"engine"`
	Mode   Mode         `json:"mode"`
	Goal   string       `json:"goal"`
	Output EngineOutput `json:"output"`
}

// MemoryWrite 是响应中附带的记忆写入记录。
type MemoryWrite struct {
	Type  memory.Type `json:"type"`
	Key   string      `json:"key"`
	Value string      `json:"value"`
}

// AssistantText 是助手的文字回复。
type AssistantText struct {
	Text string `json:"text"`
	Tone string `json:"tone,omitempty"`
}

// Response 是编排器的完整输出。
type Response struct {
	Assistant    AssistantText   `json:"assistant"`
	ToolCalls    []ToolCall      `json:"toolCalls"`
	Actions      []action.Action `json:"actions"`
	CoachSteps   []CoachStep     `json:"coachSteps"`
	MemoryWrites []MemoryWrite   `json:"memoryWrites"`
	Debug        *Debug          `json:"debug,omitempty"`
}

// Debug 携带调试信息。
type Debug struct {
	Route RouteDecision `json:"route"`
}

// Orchestrator 把路由、引擎、教练与保证性专注动作组合成一次完整
// 的助手响应。自身无状态，可以并发调用。
type Orchestrator struct {
	memories memory.Store
	log      *slog.Logger
}

// Option 定义可选的编排器配置。
type Option func(*Orchestrator)

// WithMemoryStore 配置记忆存储，用于个性化；缺省时编排器行为不变。
func WithMemoryStore(store memory.Store) Option {
	return func(o *Orchestrator) {
		o.memories = store
	}
}

// New 创建编排器。
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{log: logger.Named("assistant")}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

var (
	goalPattern         = regexp.MustCompile(`(?i)\bgoal\s*:\s*(.+)$`)
	autoDurationPattern = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(min|minutes)\b`)
)

// deriveGoal 提取显式 "goal:" 标记之后的内容，否则使用整条消息。
func deriveGoal(message string) string {
	t := strings.TrimSpace(message)
	if t == "" {
		return ""
	}
	if match := goalPattern.FindStringSubmatch(t); match != nil {
		return strings.TrimSpace(match[1])
	}
	return t
}

// isFocusIntent 是比路由规则更宽的专注意图测试，命中即保证产出
// 一个自动执行的专注动作。
func isFocusIntent(message string, route RouteDecision) bool {
	if route.HasTag("focus") {
		return true
	}
	t := strings.ToLower(message)
	return strings.Contains(t, "pomodoro") ||
		strings.Contains(t, "focus block") ||
		strings.Contains(t, "start focus") ||
		(strings.Contains(t, "focus") && (strings.Contains(t, "min") || strings.Contains(t, "minutes"))) ||
		strings.Contains(t, "study for")
}

// parseAutoDuration 解析自动执行路径的专注时长。该动作无人值守
// 执行，时长收紧到 [5,180]；路由器的 confirm 种子动作不受此限。
func parseAutoDuration(message string) int {
	match := autoDurationPattern.FindStringSubmatch(message)
	if match == nil {
		return 25
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return 25
	}
	if n < 5 {
		return 5
	}
	if n > 180 {
		return 180
	}
	return n
}

// makeAutoFocusAction 构造保证性自动专注动作。它与路由器产出的
// confirm 种子动作是两条独立路径，可以同时出现在响应里。
func makeAutoFocusAction(message string) action.Action {
	durationMin := parseAutoDuration(message)
	breakMin := 2
	if durationMin >= 20 {
		breakMin = 5
	}
	return action.Action{
		ID:       action.NewID("act_focus"),
		Kind:     action.KindStartFocusBlock,
		Label:    "Start " + strconv.Itoa(durationMin) + "-min focus",
		Trust:    action.TrustAuto,
		Priority: action.PriorityHigh,
		Reason:   "You asked to focus. Executing immediately.",
		Payload: action.FocusBlockPayload{
			Title:       "Focus Block",
			DurationMin: durationMin,
			BreakMin:    breakMin,
			Mode:        action.FocusModePomodoro,
		},
		CreatedAt: action.NowISO(),
	}
}

func coachForEngine(engine Engine, output EngineOutput) CoachOutput {
	switch engine {
	case EnginePlan:
		return CoachFromPlan(output)
	case EngineWorkout:
		return CoachFromWorkout(output)
	case EngineSummary:
		return CoachFromSummary(output)
	default:
		return CoachFromDirect(nil)
	}
}

// RunAssistant 执行一次完整的助手调用：路由、保证性专注动作、
// 引擎调用与教练后处理。
func (o *Orchestrator) RunAssistant(ctx context.Context, req Request) (*Response, error) {
	message := req.Message
	mode := NormalizeMode(req.Mode)

	route := RouteUserMessage(message)

	toolCalls := []ToolCall{}
	memoryWrites := []MemoryWrite{}
	actions := []action.Action{}
	actions = append(actions, route.SeedActions...)

	// 保证性专注动作：只要命中宽口径的专注意图就一定产出。
	if isFocusIntent(message, route) {
		actions = append(actions, makeAutoFocusAction(message))
	}

	if route.Engine == EngineNone {
		coached := CoachFromDirect(actions)
		text := "Tell me what you want to do next."
		if route.DirectText != "" {
			text = route.DirectText
		}
		if len(actions) > 0 {
			text = "Starting your focus block now."
		}
		return &Response{
			Assistant:    AssistantText{Text: text, Tone: "neutral"},
			ToolCalls:    toolCalls,
			Actions:      coached.Actions,
			CoachSteps:   coached.Steps,
			MemoryWrites: memoryWrites,
			Debug:        &Debug{Route: route},
		}, nil
	}

	goal := deriveGoal(message)
	goal = o.personalizeGoal(ctx, req.UserID, mode, goal)

	output := RunEngine(route.Engine, mode, goal)
	toolCalls = append(toolCalls, ToolCall{
		Tool:   "engine",
		Engine: route.Engine,
		Mode:   mode,
		Goal:   goal,
		Output: output,
	})
	o.log.Debug("引擎调用完成",
		slog.String("engine", string(route.Engine)),
		slog.String("mode", string(mode)),
		slog.String("goal", goal),
	)

	memoryWrites = append(memoryWrites, o.recordEngineCall(ctx, req.UserID, route.Engine, goal)...)

	coached := coachForEngine(route.Engine, output)

	var text string
	switch route.Engine {
	case EnginePlan:
		text = "Plan ready. Starting focus."
	case EngineWorkout:
		text = "Workout ready. Let's go."
	default:
		text = "Summary ready."
	}

	return &Response{
		Assistant:    AssistantText{Text: text, Tone: "coach"},
		ToolCalls:    toolCalls,
		Actions:      append(actions, coached.Actions...),
		CoachSteps:   coached.Steps,
		MemoryWrites: memoryWrites,
		Debug:        &Debug{Route: route},
	}, nil
}

// personalizeGoal 在消息没有给出目标时，用最近记忆中的目标兜底。
// 记忆层任何失败都只降级为不个性化，不影响响应本身。
func (o *Orchestrator) personalizeGoal(ctx context.Context, userID string, mode Mode, goal string) string {
	if goal != "" || o.memories == nil {
		return goal
	}
	items, err := o.memories.GetRelevant(ctx, memory.Query{
		Owner: userID,
		Types: []memory.Type{memory.TypeGoal},
		Keys:  []string{"mode." + string(mode) + ".goal"},
		Limit: 1,
	})
	if err != nil {
		o.log.Warn("读取记忆失败", slog.Any("error", err))
		return goal
	}
	if len(items) > 0 {
		return items[0].Value
	}
	return goal
}

// recordEngineCall 把本次引擎调用写入记忆，供后续个性化使用。
func (o *Orchestrator) recordEngineCall(ctx context.Context, userID string, engine Engine, goal string) []MemoryWrite {
	if o.memories == nil {
		return nil
	}
	write := memory.Write{
		Owner: userID,
		Type:  memory.TypeRecentAction,
		Key:   "engine." + string(engine) + ".goal",
		Value: goal,
	}
	if _, err := o.memories.Upsert(ctx, write); err != nil {
		o.log.Warn("写入记忆失败", slog.Any("error", err))
		return nil
	}
	return []MemoryWrite{{Type: write.Type, Key: write.Key, Value: write.Value}}
}
