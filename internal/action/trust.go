package action

// TrustDecision 描述某个动作是否可以无人值守执行。
type TrustDecision struct {
	ShouldAutoRun bool   `json:"shouldAutoRun"`
	Reason        string `json:"reason"`
}

// safeAutoKinds 是允许默认自动执行的内部动作白名单。
// 任何触达外部系统的类型（日历、邮件、webhook）默认需要确认。
var safeAutoKinds = map[Kind]struct{}{
	KindOpenView:        {},
	KindCreateChecklist: {},
	KindStartFocusBlock: {},
}

// DecideTrust 对单个动作做信任判定。纯函数，只依赖动作本身的
// trust 字段与 kind，可以被调用方反复求值而没有副作用。
// 显式 confirm 的优先级最高，会覆盖白名单。
func DecideTrust(act Action) TrustDecision {
	if act.Trust == TrustAuto {
		return TrustDecision{ShouldAutoRun: true, Reason: "explicit auto"}
	}
	if act.Trust == TrustConfirm {
		return TrustDecision{ShouldAutoRun: false, Reason: "explicit confirm"}
	}
	if _, ok := safeAutoKinds[act.Kind]; ok {
		return TrustDecision{ShouldAutoRun: true, Reason: "safe internal kind"}
	}
	return TrustDecision{ShouldAutoRun: false, Reason: "not in safe allowlist"}
}
