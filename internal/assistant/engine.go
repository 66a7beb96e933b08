package assistant

import (
	"fmt"
	"strings"

	"AmplyBrain/internal/action"
)

// Mode 表示用户所处的使用模式，影响引擎产出的内容。
type Mode string

const (
	ModeStudent    Mode = "student"
	ModeFreelancer Mode = "freelancer"
	ModeCreator    Mode = "creator"
)

// NormalizeMode 将任意输入归一化为合法模式，非法值回落到 student。
func NormalizeMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeFreelancer:
		return ModeFreelancer
	case ModeCreator:
		return ModeCreator
	default:
		return ModeStudent
	}
}

// EngineCoachStep 是引擎教练块中的一步，id 在同一引擎的多次调用
// 之间保持稳定。
type EngineCoachStep struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	DurationMins int      `json:"durationMins,omitempty"`
	SuccessCheck string   `json:"successCheck,omitempty"`
	NextIfStuck  string   `json:"nextIfStuck,omitempty"`
	Checklist    []string `json:"checklist,omitempty"`
}

// CoachBlock 是引擎附带的教练建议。
type CoachBlock struct {
	Goal     string            `json:"goal"`
	Priority string            `json:"priority"`
	Steps    []EngineCoachStep `json:"steps"`
}

// EngineOutput 是引擎调用的统一输出。
type EngineOutput struct {
	OK     bool   `json:"ok"`
	Engine Engine `json:"engine"`
	Mode   Mode   `json:"mode"`
	Goal   string `json:"goal"`
	// 界面永远可以直接渲染的主列表
	Items []string    `json:"items"`
	Coach *CoachBlock `json:"coach,omitempty"`
	// 仅 workout 引擎产出种子动作
	Actions []action.Action `json:"actions,omitempty"`
}

// clampGoal 将空目标替换为固定兜底文案。
func clampGoal(goal string) string {
	g := strings.TrimSpace(goal)
	if g == "" {
		return "make progress"
	}
	return g
}

// RunEngine 运行指定引擎。三个引擎都是 (mode, goal) 的纯函数，
// 除了内嵌的创建时间戳之外引用透明。
func RunEngine(engine Engine, mode Mode, goal string) EngineOutput {
	switch engine {
	case EnginePlan:
		return generatePlan(mode, goal)
	case EngineWorkout:
		return generateWorkout(mode, goal)
	default:
		return generateSummary(mode, goal)
	}
}

func generatePlan(mode Mode, goalInput string) EngineOutput {
	goal := clampGoal(goalInput)

	var items []string
	switch mode {
	case ModeFreelancer:
		items = []string{
			fmt.Sprintf(`Define success: what does "%s" mean in $$ or deliverables?`, goal),
			"List 3 highest-impact tasks (client / portfolio / outreach).",
			"Do 25 min deep work (one task).",
			"Ship something visible (draft, post, pitch, update).",
			"Repeat: 25 min focus + 5 min break x2.",
			"End: write the next tiny step and schedule it.",
		}
	case ModeCreator:
		items = []string{
			fmt.Sprintf(`Define success: what does "%s" look like (views, uploads, revenue)?`, goal),
			"Pick ONE piece to publish this week (video/post/thread).",
			"Outline in 10 mins (hook -> points -> CTA).",
			"Create 25 mins focused (no perfection cosplay).",
			"Publish or schedule (yes, even if it's mid).",
			"End: write next session's first step.",
		}
	default:
		items = []string{
			fmt.Sprintf(`Define success: what does "%s" mean in 1 measurable sentence?`, goal),
			"List 3 weak topics (from syllabus / past mistakes).",
			"Do 25 min active recall (no notes), then check answers.",
			"Fix mistakes: write 3 bullets on why you got them wrong.",
			"Repeat: 25 min focus + 5 min break x2.",
			"End: write next session's first task (so future-you can't dodge).",
		}
	}

	coach := &CoachBlock{
		Goal:     goal,
		Priority: "high",
		Steps: []EngineCoachStep{
			{
				ID:           "define",
				Title:        "Turn the goal into a number you can chase",
				DurationMins: 5,
				SuccessCheck: "You wrote 1 measurable sentence",
				NextIfStuck:  "Use: By (date), I will (metric).",
				Checklist:    []string{"1 measurable sentence", "deadline/date"},
			},
			{
				ID:           "execute",
				Title:        "One focused block (Pomodoro)",
				DurationMins: 25,
				SuccessCheck: "25 mins done, no distractions",
				Checklist:    []string{"timer running", "notifications off"},
			},
		},
	}

	return EngineOutput{OK: true, Engine: EnginePlan, Mode: mode, Goal: goal, Items: items, Coach: coach}
}

func generateWorkout(mode Mode, goalInput string) EngineOutput {
	goal := clampGoal(goalInput)

	var items []string
	if mode == ModeCreator {
		items = []string{
			"5 min warm-up (mobility + light cardio)",
			"Push-ups: 3 sets (leave 2 reps in tank)",
			"Rows (band/dumbbell): 3 sets",
			"Overhead press (DB/bar): 3 sets",
			"Plank: 2 x 45s",
			"Cool down + stretch 5 min",
		}
	} else {
		items = []string{
			"5 min warm-up (jumping jacks / brisk walk)",
			"Push-ups: 3 sets (stop 2 reps before failure)",
			"Rows (band/dumbbell): 3 sets",
			"Squats: 3 sets",
			"Plank: 2 x 45s",
			"Cool down + stretch 5 min",
		}
	}

	coach := &CoachBlock{
		Goal:     goal,
		Priority: "medium",
		Steps: []EngineCoachStep{
			{
				ID:           "intent",
				Title:        "Decide today's training intent",
				DurationMins: 2,
				SuccessCheck: "You chose strength / hypertrophy / conditioning",
				Checklist:    []string{"intent chosen", "rep range picked"},
			},
			{
				ID:           "execute",
				Title:        "Run the workout",
				DurationMins: 45,
				SuccessCheck: "Workout completed or honestly attempted",
			},
		},
	}

	actions := []action.Action{
		{
			ID:       action.NewID("start_workout"),
			Kind:     action.KindStartFocusBlock,
			Label:    "Start workout (45 min)",
			Trust:    action.TrustConfirm,
			Priority: action.PriorityHigh,
			Reason:   "Best workout is the one you actually start.",
			Payload: action.FocusBlockPayload{
				Title:       "Workout Session",
				DurationMin: 45,
				Mode:        action.FocusModeDeep,
			},
			CreatedAt: action.NowISO(),
		},
		{
			ID:       action.NewID("log_workout"),
			Kind:     action.KindLogWorkout,
			Label:    "Log workout",
			Trust:    action.TrustConfirm,
			Priority: action.PriorityNormal,
			Reason:   "Logging improves future programming.",
			Payload: action.WorkoutLogPayload{
				Title:       "Workout Session",
				DurationMin: 45,
			},
			CreatedAt: action.NowISO(),
		},
	}

	return EngineOutput{OK: true, Engine: EngineWorkout, Mode: mode, Goal: goal, Items: items, Coach: coach, Actions: actions}
}

func generateSummary(mode Mode, goalInput string) EngineOutput {
	goal := clampGoal(goalInput)

	items := []string{
		fmt.Sprintf("Mode: %s", mode),
		fmt.Sprintf("Main goal: %s", goal),
		"Next best action: pick 1 task and do 25 minutes focused",
		"Rule: one tab, notifications off",
	}

	coach := &CoachBlock{
		Goal:     goal,
		Priority: "low",
		Steps: []EngineCoachStep{
			{
				ID:           "one-thing",
				Title:        "Choose the ONE thing",
				DurationMins: 2,
				SuccessCheck: "You can say the next action in 7 words",
				Checklist:    []string{"single action"},
			},
		},
	}

	return EngineOutput{OK: true, Engine: EngineSummary, Mode: mode, Goal: goal, Items: items, Coach: coach}
}
