package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"AmplyBrain/internal/action"
)

// Engine 表示路由可选择的目标引擎。
type Engine string

const (
	EnginePlan    Engine = "plan"
	EngineWorkout Engine = "workout"
	EngineSummary Engine = "summary"
	EngineNone    Engine = "none"
)

// Confidence 是路由结果的置信度信号，仅用于界面与调试，不做鉴权。
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// RouteDecision 是路由器对一段自由文本的分类结果。
type RouteDecision struct {
	Engine Engine `json:"engine"`
	// 不需要调用引擎时的直接回复
	DirectText string `json:"directText,omitempty"`
	// 给编排器的提示标签
	Tags []string `json:"tags,omitempty"`
	// 在引擎输出之前就可以给出的种子动作
	SeedActions []action.Action `json:"seedActions,omitempty"`
	Confidence  Confidence      `json:"confidence"`
}

// HasTag 判断路由结果是否带有指定标签。
func (d RouteDecision) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// 路由规则使用的关键词模式。规则按固定顺序求值，先命中者生效，
// 专注意图必须先于 summary/workout/plan 判定。
var (
	focusPattern    = regexp.MustCompile(`\b(focus|pomodoro|lock\s*in|deep\s*work|start\s*(a\s*)?timer|study\s*(block|for))\b`)
	durationPattern = regexp.MustCompile(`\b(\d{1,3})\s*(min|mins|minute|minutes)\b`)
	planishPattern  = regexp.MustCompile(`\b(plan|schedule|checklist|tasks?|today|tomorrow|study)\b`)
	summaryPattern  = regexp.MustCompile(`\b(summar(y|ise|ize)|recap|what\s+did\s+i\s+do|my\s+progress|overview|log)\b`)
	workoutPattern  = regexp.MustCompile(`\b(work\s*out|workout|gym|train(ing)?|lift|bench|press|sets?|reps?|rpe|hypertrophy|strength|cardio|cut|bulk|\d+\s*x\s*\d+)\b`)
	planPattern     = regexp.MustCompile(`\b(plan|schedule|calendar|checklist|to-?do|tasks?|roadmap|strategy|study|revision|deadline|project)\b`)
)

// RouteUserMessage 将自由文本确定性地分类到目标引擎。
// 无隐藏状态，同一条消息永远得到同样的分类。
func RouteUserMessage(message string) RouteDecision {
	t := strings.ToLower(strings.TrimSpace(message))

	if t == "" {
		return RouteDecision{
			Engine:     EngineNone,
			DirectText: "Say something and I'll do something. Preferably in that order.",
			Confidence: ConfidenceHigh,
		}
	}

	if focusPattern.MatchString(t) {
		durationMin := parseSeedDuration(t)
		seed := action.Action{
			ID:       action.NewID("act"),
			Kind:     action.KindStartFocusBlock,
			Label:    "Start " + strconv.Itoa(durationMin) + "-min focus",
			Trust:    action.TrustConfirm,
			Priority: action.PriorityHigh,
			Reason:   "You asked to focus. I am nothing if not obedient.",
			Payload: action.FocusBlockPayload{
				Title:       "Focus Block",
				DurationMin: durationMin,
				BreakMin:    5,
				Mode:        action.FocusModePomodoro,
			},
			CreatedAt: action.NowISO(),
		}

		// 专注有时是规划的一部分，但除非明确出现规划关键词，引擎保持 none。
		engine := EngineNone
		if planishPattern.MatchString(t) {
			engine = EnginePlan
		}
		return RouteDecision{
			Engine:      engine,
			SeedActions: []action.Action{seed},
			Confidence:  ConfidenceHigh,
			Tags:        []string{"focus"},
		}
	}

	if summaryPattern.MatchString(t) {
		return RouteDecision{Engine: EngineSummary, Confidence: ConfidenceHigh, Tags: []string{"summary"}}
	}

	if workoutPattern.MatchString(t) {
		return RouteDecision{Engine: EngineWorkout, Confidence: ConfidenceHigh, Tags: []string{"workout"}}
	}

	if planPattern.MatchString(t) {
		return RouteDecision{Engine: EnginePlan, Confidence: ConfidenceHigh, Tags: []string{"plan"}}
	}

	return RouteDecision{
		Engine:     EngineNone,
		Confidence: ConfidenceMedium,
		DirectText: "I can plan, coach workouts, or summarize your progress. Tell me what you want done, not what you want *discussed*.",
		Tags:       []string{"fallback"},
	}
}

// parseSeedDuration 从 "<N> min(s)" 模式解析时长，默认 25 分钟。
// 本层只保证下限，不设上限；编排器的自动执行路径另有 [5,180] 的
// 收紧，因为那条路径产出的动作无人值守执行。
func parseSeedDuration(t string) int {
	match := durationPattern.FindStringSubmatch(t)
	if match == nil {
		return 25
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return 25
	}
	return n
}
