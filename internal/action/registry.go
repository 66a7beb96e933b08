package action

import (
	"context"
	"sort"
	"sync"
)

// Executor 定义了某一动作类型的执行能力。实例在进程启动阶段创建并
// 注册一次，生命周期与进程一致，不做按请求实例化。
type Executor interface {
	// Kind 返回该执行器负责的动作类型。
	Kind() Kind
	// Execute 执行动作。约定返回 ok=false 的 Result 而不是 error，
	// 安全执行包装器会兜底处理仍然返回 error 或 panic 的实现。
	Execute(ctx context.Context, act Action, ec ExecContext) (Result, error)
}

// Validator 是执行器可选实现的前置校验能力。返回非空字符串表示
// 校验失败及其原因，返回空串表示通过。
type Validator interface {
	Validate(act Action) string
}

// Registry 维护 kind 到执行器的映射。注册应在服务开始处理请求之前
// 全部完成，此后映射只读；运行期的并发重注册视为配置变更，需要
// 外部串行化。
type Registry struct {
	mu        sync.RWMutex
	executors map[Kind]Executor
}

// NewRegistry 创建一个空的执行器注册表。
func NewRegistry() *Registry {
	return &Registry{executors: make(map[Kind]Executor)}
}

// Register 注册或覆盖某一动作类型的执行器，后写者胜出。
// 注册阶段不校验执行器的正确性。
func (r *Registry) Register(ex Executor) {
	if ex == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[ex.Kind()] = ex
}

// RegisterAll 批量注册执行器。
func (r *Registry) RegisterAll(list ...Executor) {
	for _, ex := range list {
		r.Register(ex)
	}
}

// Lookup 返回某一动作类型的执行器。
func (r *Registry) Lookup(kind Kind) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[kind]
	return ex, ok
}

// Kinds 返回已注册的动作类型列表，仅用于诊断。
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.executors))
	for kind := range r.executors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
