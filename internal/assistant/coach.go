package assistant

import (
	"fmt"

	"AmplyBrain/internal/action"
)

// CoachPriority 表示教练步骤的时机优先级。
type CoachPriority string

const (
	CoachNow   CoachPriority = "now"
	CoachNext  CoachPriority = "next"
	CoachLater CoachPriority = "later"
)

// CoachStep 是给用户的一条具体下一步。
type CoachStep struct {
	Priority     CoachPriority `json:"priority"`
	Title        string        `json:"title"`
	DurationMin  int           `json:"durationMin,omitempty"`
	SuccessCheck string        `json:"successCheck"`
}

// CoachOutput 是教练层的输出：按优先级排列的步骤加上建议动作。
type CoachOutput struct {
	Steps   []CoachStep     `json:"steps"`
	Actions []action.Action `json:"actions"`
}

// CoachFromPlan 处理 plan 引擎的输出。计划里有具体条目时推动执行，
// 否则要求先澄清计划。
func CoachFromPlan(output EngineOutput) CoachOutput {
	if len(output.Items) == 0 {
		return CoachOutput{
			Steps: []CoachStep{{
				Priority:     CoachNext,
				Title:        "Refine or clarify your plan",
				SuccessCheck: "Plan has concrete next steps",
			}},
			Actions: []action.Action{},
		}
	}
	return CoachOutput{
		Steps: []CoachStep{{
			Priority:     CoachNow,
			Title:        "Start executing the plan",
			DurationMin:  25,
			SuccessCheck: "Complete at least one planned task",
		}},
		Actions: []action.Action{{
			ID:       action.NewID("act"),
			Kind:     action.KindStartFocusBlock,
			Label:    "Start 25-min focus block",
			Trust:    action.TrustConfirm,
			Priority: action.PriorityHigh,
			Reason:   "Execution beats planning. Always.",
			Payload: action.FocusBlockPayload{
				Title:       "Plan Execution",
				DurationMin: 25,
				BreakMin:    5,
				Mode:        action.FocusModePomodoro,
			},
			CreatedAt: action.NowISO(),
		}},
	}
}

// CoachFromWorkout 处理 workout 引擎的输出。
func CoachFromWorkout(output EngineOutput) CoachOutput {
	title := "Workout Session"
	durationMin := 45
	return CoachOutput{
		Steps: []CoachStep{{
			Priority:     CoachNow,
			Title:        fmt.Sprintf("Do the workout: %s", title),
			DurationMin:  durationMin,
			SuccessCheck: "Complete at least 70% of prescribed work",
		}},
		Actions: []action.Action{{
			ID:       action.NewID("act"),
			Kind:     action.KindLogWorkout,
			Label:    "Log workout after completion",
			Trust:    action.TrustConfirm,
			Priority: action.PriorityNormal,
			Reason:   "Logging improves future recommendations.",
			Payload: action.WorkoutLogPayload{
				Title:       title,
				DurationMin: durationMin,
			},
			CreatedAt: action.NowISO(),
		}},
	}
}

// CoachFromSummary 处理 summary 引擎的输出，并顺带引导用户回到规划。
func CoachFromSummary(output EngineOutput) CoachOutput {
	return CoachOutput{
		Steps: []CoachStep{{
			Priority:     CoachNext,
			Title:        "Review your progress",
			SuccessCheck: "You understand what worked and what didn't",
		}},
		Actions: []action.Action{{
			ID:        action.NewID("act"),
			Kind:      action.KindOpenView,
			Label:     "Open planner",
			Trust:     action.TrustAuto,
			Priority:  action.PriorityLow,
			Payload:   action.OpenViewPayload{View: action.ViewPlan},
			CreatedAt: action.NowISO(),
		}},
	}
}

// CoachFromDirect 处理无引擎路径：种子动作原样透传。
func CoachFromDirect(seedActions []action.Action) CoachOutput {
	actions := make([]action.Action, len(seedActions))
	copy(actions, seedActions)

	if len(actions) > 0 {
		return CoachOutput{
			Steps: []CoachStep{{
				Priority:     CoachNow,
				Title:        "Take the suggested action",
				SuccessCheck: "Action executed successfully",
			}},
			Actions: actions,
		}
	}
	return CoachOutput{
		Steps: []CoachStep{{
			Priority:     CoachNext,
			Title:        "Clarify what you want to do",
			SuccessCheck: "A concrete task or goal is defined",
		}},
		Actions: actions,
	}
}
